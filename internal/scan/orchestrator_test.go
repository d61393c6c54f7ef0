package scan

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"swaperex-scan/internal/domain"
	"swaperex-scan/internal/observability"
	"swaperex-scan/internal/provider"
)

// stubProvider is a canned provider for orchestration tests.
type stubProvider struct {
	name     string
	supports bool
	result   *provider.Result
	err      error
	calls    int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Supports(_ int64) bool { return p.supports }

func (p *stubProvider) Fetch(_ context.Context, _ int64, _ string) (*provider.Result, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.result, nil
}

func tokens(n int) []domain.RawToken {
	out := make([]domain.RawToken, n)
	for i := range out {
		out[i] = domain.RawToken{Address: "0x1", Symbol: "TKN", Balance: "1"}
	}
	return out
}

func TestOrchestrator_FirstProviderWins(t *testing.T) {
	first := &stubProvider{name: "first", supports: true, result: &provider.Result{Tokens: tokens(2)}}
	second := &stubProvider{name: "second", supports: true, result: &provider.Result{Tokens: tokens(5)}}
	o := NewOrchestrator([]provider.Provider{first, second}, nil)

	result, name, err := o.Run(context.Background(), 1, "0xabc")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if name != "first" {
		t.Errorf("Expected provider first, got %s", name)
	}
	if len(result.Tokens) != 2 {
		t.Errorf("Expected 2 tokens, got %d", len(result.Tokens))
	}
	if second.calls != 0 {
		t.Errorf("Second provider should not have been called, got %d calls", second.calls)
	}
}

func TestOrchestrator_SkipsUnsupported(t *testing.T) {
	first := &stubProvider{name: "first", supports: false}
	second := &stubProvider{name: "second", supports: true, result: &provider.Result{Tokens: tokens(1)}}
	o := NewOrchestrator([]provider.Provider{first, second}, nil)

	_, name, err := o.Run(context.Background(), 1, "0xabc")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if name != "second" {
		t.Errorf("Expected provider second, got %s", name)
	}
	if first.calls != 0 {
		t.Errorf("Unsupported provider should not be fetched, got %d calls", first.calls)
	}
}

func TestOrchestrator_FallsBackOnError(t *testing.T) {
	first := &stubProvider{name: "first", supports: true, err: errors.New("rate limited")}
	second := &stubProvider{name: "second", supports: true, result: &provider.Result{Tokens: tokens(3)}}
	o := NewOrchestrator([]provider.Provider{first, second}, nil)

	result, name, err := o.Run(context.Background(), 1, "0xabc")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if name != "second" {
		t.Errorf("Expected fallback to second, got %s", name)
	}
	if len(result.Tokens) != 3 {
		t.Errorf("Expected 3 tokens, got %d", len(result.Tokens))
	}
}

func TestOrchestrator_TerminalEmptySuccess(t *testing.T) {
	first := &stubProvider{name: "first", supports: true, err: errors.New("down")}
	terminal := &stubProvider{name: "terminal", supports: true, result: &provider.Result{}}
	o := NewOrchestrator([]provider.Provider{first, terminal}, nil)

	result, name, err := o.Run(context.Background(), 1, "0xabc")
	if err != nil {
		t.Fatalf("Empty terminal answer should be success, got %v", err)
	}
	if name != "terminal" {
		t.Errorf("Expected provider terminal, got %s", name)
	}
	if len(result.Tokens) != 0 {
		t.Errorf("Expected empty result, got %d tokens", len(result.Tokens))
	}
}

func TestOrchestrator_EmptyNonTerminalTriesNext(t *testing.T) {
	first := &stubProvider{name: "first", supports: true, result: &provider.Result{}}
	second := &stubProvider{name: "second", supports: true, result: &provider.Result{Tokens: tokens(1)}}
	o := NewOrchestrator([]provider.Provider{first, second}, nil)

	result, name, err := o.Run(context.Background(), 1, "0xabc")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if name != "second" {
		t.Errorf("Expected provider second, got %s", name)
	}
	if len(result.Tokens) != 1 {
		t.Errorf("Expected 1 token, got %d", len(result.Tokens))
	}
}

func TestOrchestrator_EmptySuccessPreservedWhenRestFail(t *testing.T) {
	first := &stubProvider{name: "first", supports: true, result: &provider.Result{}}
	second := &stubProvider{name: "second", supports: true, err: errors.New("down")}
	o := NewOrchestrator([]provider.Provider{first, second}, nil)

	result, name, err := o.Run(context.Background(), 1, "0xabc")
	if err != nil {
		t.Fatalf("Expected the earlier empty success to stand, got %v", err)
	}
	if name != "first" {
		t.Errorf("Expected provider first, got %s", name)
	}
	if len(result.Tokens) != 0 {
		t.Errorf("Expected empty result, got %d tokens", len(result.Tokens))
	}
}

func TestOrchestrator_AllFail(t *testing.T) {
	first := &stubProvider{name: "first", supports: true, err: errors.New("down")}
	second := &stubProvider{name: "second", supports: true, err: errors.New("also down")}
	o := NewOrchestrator([]provider.Provider{first, second}, nil)

	_, _, err := o.Run(context.Background(), 1, "0xabc")
	if !errors.Is(err, ErrAllProvidersFailed) {
		t.Errorf("Expected ErrAllProvidersFailed, got %v", err)
	}
}

func TestOrchestrator_NoProviderSupportsChain(t *testing.T) {
	first := &stubProvider{name: "first", supports: false}
	o := NewOrchestrator([]provider.Provider{first}, nil)

	_, _, err := o.Run(context.Background(), 999, "0xabc")
	if !errors.Is(err, ErrAllProvidersFailed) {
		t.Errorf("Expected ErrAllProvidersFailed, got %v", err)
	}
}

func TestOrchestrator_ContextCancelled(t *testing.T) {
	first := &stubProvider{name: "first", supports: true, result: &provider.Result{Tokens: tokens(1)}}
	o := NewOrchestrator([]provider.Provider{first}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := o.Run(ctx, 1, "0xabc")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestOrchestrator_RecordsProviderFetchMetrics(t *testing.T) {
	okBefore := testutil.ToFloat64(observability.DefaultMetrics.ProviderRequests.WithLabelValues("good", "ok"))
	errBefore := testutil.ToFloat64(observability.DefaultMetrics.ProviderRequests.WithLabelValues("bad", "error"))

	bad := &stubProvider{name: "bad", supports: true, err: errors.New("down")}
	good := &stubProvider{name: "good", supports: true, result: &provider.Result{Tokens: tokens(1)}}
	o := NewOrchestrator([]provider.Provider{bad, good}, nil)

	if _, _, err := o.Run(context.Background(), 1, "0xabc"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	okAfter := testutil.ToFloat64(observability.DefaultMetrics.ProviderRequests.WithLabelValues("good", "ok"))
	errAfter := testutil.ToFloat64(observability.DefaultMetrics.ProviderRequests.WithLabelValues("bad", "error"))
	if okAfter != okBefore+1 {
		t.Errorf("ok fetches: got %v, want %v", okAfter, okBefore+1)
	}
	if errAfter != errBefore+1 {
		t.Errorf("error fetches: got %v, want %v", errAfter, errBefore+1)
	}
}
