package hash

import (
	"context"
	"errors"
	"strings"
	"testing"

	apperrors "github.com/kbukum/authtoken/errors"
)

func mustHasher(t *testing.T, cfg Config) *Hasher {
	t.Helper()
	h, err := New(cfg)
	if err != nil {
		t.Fatalf("New(%+v) failed: %v", cfg, err)
	}
	return h
}

func TestHasher_Deterministic(t *testing.T) {
	h := mustHasher(t, Config{Salt: "pepper"})
	a, err := h.Hash(context.Background(), "alice+secret+1")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	b, _ := h.Hash(context.Background(), "alice+secret+1")
	if a != b {
		t.Errorf("digest not deterministic: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars for sha256, got %d", len(a))
	}
}

func TestHasher_InputsDiffer(t *testing.T) {
	h := mustHasher(t, Config{Salt: "pepper"})
	if h.Sum("a") == h.Sum("b") {
		t.Error("different inputs produced the same digest")
	}
}

func TestHasher_SaltAndIterationsMatter(t *testing.T) {
	base := mustHasher(t, Config{Salt: "pepper", Iterations: 50}).Sum("x")
	if mustHasher(t, Config{Salt: "paprika", Iterations: 50}).Sum("x") == base {
		t.Error("salt did not change the digest")
	}
	if mustHasher(t, Config{Salt: "pepper", Iterations: 51}).Sum("x") == base {
		t.Error("iterations did not change the digest")
	}
}

func TestHasher_AllAlgorithms(t *testing.T) {
	for _, name := range Algorithms() {
		t.Run(name, func(t *testing.T) {
			h := mustHasher(t, Config{Algorithm: Algorithm(name), Salt: "s", Iterations: 2})
			if h.Sum("input") == "" {
				t.Error("empty digest")
			}
		})
	}
}

func TestHasher_IncludeMeta(t *testing.T) {
	h := mustHasher(t, Config{Algorithm: SHA512, Salt: "pepper", Iterations: 7, IncludeMeta: true})
	digest := h.Sum("x")
	parts := strings.Split(digest, MetaSeparator)
	if len(parts) != 3 {
		t.Fatalf("expected algorithm$iterations$digest, got %q", digest)
	}
	if parts[0] != "sha512" || parts[1] != "7" {
		t.Errorf("unexpected meta: %q", digest)
	}
	if strings.Contains(digest, ":") {
		t.Error("meta digest must not contain the token delimiter")
	}
	if strings.Contains(digest, "pepper") {
		t.Error("meta digest must not expose the salt")
	}
}

func TestNew_UnsupportedAlgorithm(t *testing.T) {
	_, err := New(Config{Algorithm: "md5", Salt: "s"})
	if !apperrors.HasCode(err, apperrors.ErrCodeHash) {
		t.Fatalf("expected HASH_ERROR, got %v", err)
	}
}

func TestNew_InvalidIterations(t *testing.T) {
	_, err := New(Config{Salt: "s", Iterations: -1})
	if !apperrors.HasCode(err, apperrors.ErrCodeConfig) {
		t.Fatalf("expected CONFIG_ERROR, got %v", err)
	}
}

func TestNew_GeneratesSalt(t *testing.T) {
	a := mustHasher(t, Config{})
	if !a.GeneratedSalt() {
		t.Error("expected generated salt")
	}
	if len(a.salt) != generatedSaltLen {
		t.Errorf("expected %d-char salt, got %d", generatedSaltLen, len(a.salt))
	}
	if mustHasher(t, Config{Salt: "fixed"}).GeneratedSalt() {
		t.Error("configured salt reported as generated")
	}
}

func TestNew_AlgorithmCaseInsensitive(t *testing.T) {
	h := mustHasher(t, Config{Algorithm: "SHA3-256", Salt: "s"})
	if h.Algorithm() != SHA3_256 {
		t.Errorf("expected sha3-256, got %s", h.Algorithm())
	}
}

func TestHasher_CancelledContext(t *testing.T) {
	h := mustHasher(t, Config{Salt: "s"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := h.Hash(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestHasher_ZeroValue(t *testing.T) {
	var h Hasher
	if err := h.Validate(); !apperrors.HasCode(err, apperrors.ErrCodeHash) {
		t.Fatalf("expected HASH_ERROR for zero hasher, got %v", err)
	}
	if h.Sum("x") != "" {
		t.Error("zero hasher should produce no digest")
	}
}
