package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gofinances/internal/core"
)

const samplePayload = `{
	"transactions": [
		{"id":"1","title":"Paycheck","value":500,"type":"income","category":{"title":"Salary"},"created_at":"2021-02-10T00:00:00Z"}
	],
	"balance": {"income":500,"outcome":0,"total":500}
}`

func newBackend(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchTransactionsSuccess(t *testing.T) {
	var gotPath, gotQuery, gotAccept string
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery, gotAccept = r.URL.Path, r.URL.RawQuery, r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(samplePayload))
	})

	res, err := New(srv.URL + "/").FetchTransactions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/transactions" || gotQuery != "" {
		t.Fatalf("request = %s?%s", gotPath, gotQuery)
	}
	if gotAccept != "application/json" {
		t.Fatalf("accept = %q", gotAccept)
	}
	if len(res.Transactions) != 1 || res.Transactions[0].Type != core.Income {
		t.Fatalf("transactions = %+v", res.Transactions)
	}
	if res.Balance.Income.Cents != 50000 || res.Balance.Total.Cents != 50000 || !res.Balance.Outcome.Valid {
		t.Fatalf("balance = %+v", res.Balance)
	}
}

func TestFetchTransactionsEmptyList(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"transactions":[],"balance":{"income":0,"outcome":0,"total":0}}`))
	})
	res, err := New(srv.URL).FetchTransactions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsEmpty() {
		t.Fatalf("expected empty result")
	}
}

func TestFetchTransactionsRowWithoutValue(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"missing", `{"id":"1","title":"Gift","type":"income","category":{"title":"Misc"},"created_at":"2021-02-10T00:00:00Z"}`},
		{"null", `{"id":"1","title":"Gift","value":null,"type":"income","category":{"title":"Misc"},"created_at":"2021-02-10T00:00:00Z"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			body := `{"transactions":[` + tc.row + `,{"id":"2","title":"Rent","value":1200,"type":"outcome","category":{"title":"Home"},"created_at":"2021-02-11T00:00:00Z"}],"balance":{"income":0,"outcome":1200,"total":-1200}}`
			srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(body))
			})

			res, err := New(srv.URL).FetchTransactions(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(res.Transactions) != 2 {
				t.Fatalf("transactions = %d, want 2", len(res.Transactions))
			}
			if res.Transactions[0].Value.Valid {
				t.Fatalf("value should be unset: %+v", res.Transactions[0].Value)
			}
			if res.Transactions[0].Title != "Gift" {
				t.Fatalf("row fields lost: %+v", res.Transactions[0])
			}
			second := res.Transactions[1].Value
			if !second.Valid || second.Cents != 120000 {
				t.Fatalf("second value = %+v", second)
			}
		})
	}
}

func TestFetchTransactionsFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
		kind    string
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			want: ErrStatus,
			kind: "status_error",
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			want: ErrStatus,
			kind: "status_error",
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"transactions":[`))
			},
			want: ErrDecode,
			kind: "decode_error",
		},
		{
			name: "html body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				_, _ = w.Write([]byte(`<html></html>`))
			},
			want: ErrDecode,
			kind: "decode_error",
		},
		{
			name: "missing balance",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"transactions":[]}`))
			},
			want: ErrDecode,
			kind: "decode_error",
		},
		{
			name: "missing transactions",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"balance":{"income":0,"outcome":0,"total":0}}`))
			},
			want: ErrDecode,
			kind: "decode_error",
		},
		{
			name: "bad amount",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"transactions":[{"id":"1","value":"abc"}],"balance":{}}`))
			},
			want: ErrDecode,
			kind: "decode_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newBackend(t, tt.handler)
			_, err := New(srv.URL).FetchTransactions(context.Background())
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if got := Kind(err); got != tt.kind {
				t.Fatalf("Kind = %q, want %q", got, tt.kind)
			}
		})
	}
}

func TestFetchTransactionsStatusErrorDetails(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(strings.Repeat("x", 1000)))
	})
	_, err := New(srv.URL).FetchTransactions(context.Background())
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusBadGateway || len(se.Body) != snippetLen {
		t.Fatalf("status error = code %d, body len %d", se.Code, len(se.Body))
	}
}

func TestFetchTransactionsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).FetchTransactions(context.Background())
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
}

func TestFetchTransactionsCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := New(srv.URL).FetchTransactions(ctx)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
}

func TestFetchTransactionsBodyLimit(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(samplePayload))
	})
	_, err := New(srv.URL, WithMaxBodyBytes(16)).FetchTransactions(context.Background())
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
}
