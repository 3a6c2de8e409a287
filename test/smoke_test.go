package test

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"structwhois/internal/whois/handler"
	"structwhois/internal/whois/parser"
	"structwhois/internal/whois/store"
	"structwhois/pkg/testutil"
)

// Smoke test for the fully wired router: parser, archive, and admin routes
// behave end to end the way main assembles them.
func TestRouterSmoke(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p, err := parser.New(parser.WithLogger(logger))
	if err != nil {
		t.Fatalf("build parser: %v", err)
	}

	router := chi.NewRouter()
	h := handler.New(p, logger, "smoke-admin-token",
		handler.WithArchive(store.NewInMemoryRecordStore()))
	h.Register(router)

	testutil.Given(t, "the wired whois router", func(t *testing.T) {
		testutil.When(t, "posting a raw whois response", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/whois/parse", map[string]any{
				"raw_text": "Domain Name: EXAMPLE.COM\nRegistrar: Example Registrar Inc.\n",
			})
			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "it returns the structured record", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusOK)
				record := *testutil.UnmarshalResponse[map[string]any](t, rr)
				if record["domain"] != "EXAMPLE.COM" {
					t.Fatalf("unexpected domain %v", record["domain"])
				}
				if record["registrar"] != "Example Registrar Inc." {
					t.Fatalf("unexpected registrar %v", record["registrar"])
				}
			})
		})

		testutil.When(t, "listing supported TLDs", func(t *testing.T) {
			req := testutil.NewRequest(t, http.MethodGet, "/whois/tlds")
			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "it responds with the TLD table", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				testutil.AssertJSONHasKey(t, rr, "tlds")
			})
		})

		testutil.When(t, "posting an empty parse request", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/whois/parse", map[string]any{})
			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "it is rejected with a coded envelope", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
			})
		})

		testutil.When(t, "hitting admin routes without a token", func(t *testing.T) {
			req := testutil.NewRequest(t, http.MethodPost, "/admin/refresh")
			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "it is rejected", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusUnauthorized)
			})
		})
	})
}
