package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Digital-Shane/title-fetch/internal/episode"
	"github.com/google/go-cmp/cmp"
)

// MockProvider is a test provider implementation
type MockProvider struct {
	kind      Kind
	needsKey  bool
	fetchFunc func(context.Context, episode.Query) (*episode.Result, error)
	calls     int
}

func (m *MockProvider) Kind() Kind           { return m.kind }
func (m *MockProvider) Name() string         { return m.kind.String() }
func (m *MockProvider) Description() string  { return "Mock provider for testing" }
func (m *MockProvider) RequiresAPIKey() bool { return m.needsKey }
func (m *MockProvider) Fetch(ctx context.Context, q episode.Query) (*episode.Result, error) {
	m.calls++
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, q)
	}
	return &episode.Result{Seasons: []episode.SeasonBucket{}}, nil
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{in: "tvdb", want: KindTVDB},
		{in: " Jikan ", want: KindJikan},
		{in: "TVMAZE", want: KindTVMaze},
		{in: "TVDB", want: KindTVDB},
		{in: "JIKA", want: KindJikan},
		{in: "TVMZ", want: KindTVMaze},
		{in: "anidb", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseKind(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseKind(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if !tc.wantErr && got != tc.want {
				t.Errorf("ParseKind(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestKindNextCycles(t *testing.T) {
	got := []Kind{KindTVDB.Next(), KindJikan.Next(), KindTVMaze.Next()}
	want := []Kind{KindJikan, KindTVMaze, KindTVDB}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Next() mismatch (-want +got):\n%s", diff)
	}
}

func TestKindTextRoundTrip(t *testing.T) {
	var k Kind
	if err := k.UnmarshalText([]byte("tvmaze")); err != nil {
		t.Fatalf("UnmarshalText() error = %v", err)
	}
	text, _ := k.MarshalText()
	if string(text) != "tvmaze" {
		t.Errorf("MarshalText() = %q, want %q", text, "tvmaze")
	}
	if err := k.UnmarshalText([]byte("nope")); err == nil {
		t.Error("UnmarshalText(nope) expected error")
	}
}

func TestValidateQuery(t *testing.T) {
	keyed := &MockProvider{kind: KindTVDB, needsKey: true}
	open := &MockProvider{kind: KindTVMaze}

	tests := []struct {
		name      string
		provider  Provider
		query     episode.Query
		wantField string
	}{
		{name: "missing key", provider: keyed, query: episode.Query{AnimeName: "Naruto"}, wantField: "api_key"},
		{name: "blank key", provider: keyed, query: episode.Query{AnimeName: "Naruto", APIKey: "   "}, wantField: "api_key"},
		{name: "keyed ok", provider: keyed, query: episode.Query{AnimeName: "Naruto", APIKey: "k"}},
		{name: "empty query", provider: open, query: episode.Query{AnimeName: "  "}, wantField: "query"},
		{name: "negative id", provider: open, query: episode.Query{AnimeID: -1, AnimeName: "x"}, wantField: "anime_id"},
		{name: "negative year", provider: open, query: episode.Query{AnimeName: "x", Year: -2}, wantField: "year"},
		{name: "id only", provider: open, query: episode.Query{AnimeID: 20}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateQuery(tc.provider, tc.query)
			if tc.wantField == "" {
				if err != nil {
					t.Fatalf("ValidateQuery() error = %v, want nil", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("ValidateQuery() error = %v, want *ValidationError", err)
			}
			if ve.Field != tc.wantField {
				t.Errorf("ValidationError.Field = %q, want %q", ve.Field, tc.wantField)
			}
			if !IsValidation(err) {
				t.Error("IsValidation() = false, want true")
			}
		})
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		msg       string
		wantCode  string
		wantRetry bool
	}{
		{msg: "401 Unauthorized", wantCode: CodeAuthFailed},
		{msg: "HTTP 429 Too Many Requests", wantCode: CodeRateLimited, wantRetry: true},
		{msg: "404 Not Found", wantCode: CodeNotFound},
		{msg: "503 Service Unavailable", wantCode: CodeUnavailable, wantRetry: true},
		{msg: "connection reset", wantCode: CodeUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.msg, func(t *testing.T) {
			err := MapError("jikan", errors.New(tc.msg))
			var pe *ProviderError
			if !errors.As(err, &pe) {
				t.Fatalf("MapError() = %T, want *ProviderError", err)
			}
			if pe.Code != tc.wantCode || pe.Retry != tc.wantRetry || pe.Provider != "jikan" {
				t.Errorf("MapError() = %+v, want code %s retry %v", pe, tc.wantCode, tc.wantRetry)
			}
		})
	}

	if err := MapError("jikan", nil); err != nil {
		t.Errorf("MapError(nil) = %v, want nil", err)
	}
	if err := MapError("jikan", fmt.Errorf("wrapped: %w", context.Canceled)); !errors.Is(err, context.Canceled) {
		t.Errorf("MapError(canceled) = %v, want context.Canceled", err)
	}
	existing := NotFound("tvmaze", "No matching anime found.")
	if err := MapError("jikan", existing); err != existing {
		t.Errorf("MapError(ProviderError) = %v, want passthrough", err)
	}
}
