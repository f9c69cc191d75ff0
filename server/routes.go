package server

import (
	"sort"
	"strings"

	"github.com/kbukum/authtoken/logger"
)

// System route paths registered by RegisterDefaultEndpoints.
var systemPaths = map[string]bool{
	"/health":  true,
	"/version": true,
}

// Route describes one registered Gin route.
type Route struct {
	Method  string
	Path    string
	Handler string
	System  bool
}

// Routes returns the registered Gin routes, API routes first, then system
// routes, each sorted by path and method.
func (s *Server) Routes() []Route {
	ginRoutes := s.engine.Routes()
	sort.Slice(ginRoutes, func(i, j int) bool {
		iSys := systemPaths[ginRoutes[i].Path]
		jSys := systemPaths[ginRoutes[j].Path]
		if iSys != jSys {
			return !iSys
		}
		if ginRoutes[i].Path != ginRoutes[j].Path {
			return ginRoutes[i].Path < ginRoutes[j].Path
		}
		return methodOrder(ginRoutes[i].Method) < methodOrder(ginRoutes[j].Method)
	})

	routes := make([]Route, 0, len(ginRoutes))
	for _, r := range ginRoutes {
		routes = append(routes, Route{
			Method:  r.Method,
			Path:    r.Path,
			Handler: formatHandlerName(r.Handler),
			System:  systemPaths[r.Path],
		})
	}
	return routes
}

// LogRoutes writes the route table at startup. loginPath is answered by the
// authentication middleware and has no Gin route of its own.
func (s *Server) LogRoutes(loginPath string) {
	if loginPath != "" {
		s.log.Info("Route", logger.Fields(logger.FieldMethod, "POST", logger.FieldPath, loginPath, "handler", "login"))
	}
	for _, r := range s.Routes() {
		s.log.Info("Route", logger.Fields(
			logger.FieldMethod, r.Method,
			logger.FieldPath, r.Path,
			"handler", r.Handler,
			"system", r.System,
		))
	}
}

// formatHandlerName extracts a clean handler name from Gin's full handler path.
// Gin stores handlers like:
//
//	"main.(*app).me-fm"
//
// We extract: "app.me"
func formatHandlerName(fullPath string) string {
	name := strings.TrimSuffix(fullPath, "-fm")

	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}

	// "(*app).me" → "app.me"
	name = strings.ReplaceAll(name, "(*", "")
	name = strings.ReplaceAll(name, ")", "")

	// Closures like "endpoint.Health.func1" reduce to "health".
	if strings.Contains(name, ".func") {
		parts := strings.Split(name, ".")
		for i := len(parts) - 1; i >= 0; i-- {
			if !strings.HasPrefix(parts[i], "func") {
				return strings.ToLower(parts[i])
			}
		}
	}

	// Drop the package prefix: "main.app.me" → "app.me"
	if parts := strings.SplitN(name, ".", 2); len(parts) == 2 && strings.Contains(parts[1], ".") {
		name = parts[1]
	}
	return name
}

// methodOrder returns a sort key for HTTP methods (GET first, DELETE last).
func methodOrder(method string) int {
	switch method {
	case "GET":
		return 0
	case "POST":
		return 1
	case "PUT":
		return 2
	case "PATCH":
		return 3
	case "DELETE":
		return 4
	default:
		return 5
	}
}
