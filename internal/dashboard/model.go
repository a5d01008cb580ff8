package dashboard

import (
	"errors"
	"strings"

	"gofinances/internal/client"
	"gofinances/internal/core"
	"gofinances/internal/format"
)

const (
	// DefaultImportURL is where the "Importar" link points by default.
	DefaultImportURL = "/import"
	// LoadingText replaces card values until the first fetch completes.
	LoadingText = "Carregando..."
)

type (
	// Card is one of the three balance summaries.
	Card struct {
		Key     string `json:"key"`
		Label   string `json:"label"`
		Value   string `json:"value"`
		Icon    string `json:"icon"`
		Alt     string `json:"alt"`
		TestID  string `json:"test_id"`
		Total   bool   `json:"total"`
		Pending bool   `json:"pending"`
	}

	// Row is one transaction as displayed in the table.
	Row struct {
		ID       string `json:"id"`
		Title    string `json:"title"`
		Amount   string `json:"amount"`
		Category string `json:"category"`
		Date     string `json:"date"`
		Class    string `json:"class"`
	}

	// ViewModel is everything the dashboard templates need.
	ViewModel struct {
		Status    Status `json:"status"`
		Cards     []Card `json:"cards"`
		Rows      []Row  `json:"rows"`
		ShowTable bool   `json:"show_table"`
		ImportURL string `json:"import_url"`
		Error     string `json:"error,omitempty"`
		ErrorKind string `json:"error_kind,omitempty"`
		Retryable bool   `json:"retryable"`
		// ViewID names the server-side view a retry should reuse.
		ViewID string `json:"view_id,omitempty"`
	}
)

// Build maps a view state to display strings. It never fails: missing data
// becomes a placeholder.
func Build(st State, f *format.Formatter, importURL string) ViewModel {
	if f == nil {
		f = format.New(format.BRL())
	}
	if importURL == "" {
		importURL = DefaultImportURL
	}

	vm := ViewModel{
		Status:    st.Status,
		ImportURL: importURL,
	}

	var balance core.Balance
	pending := st.Result == nil
	if !pending {
		balance = st.Result.Balance
	}
	vm.Cards = buildCards(balance, f, pending && st.Status == StatusLoading)

	vm.Rows = []Row{}
	if st.Result != nil {
		vm.Rows = make([]Row, 0, len(st.Result.Transactions))
		for _, tx := range st.Result.Transactions {
			vm.Rows = append(vm.Rows, buildRow(tx, f))
		}
	}
	vm.ShowTable = len(vm.Rows) > 0

	if st.Status == StatusError {
		vm.Error = errorMessage(st.Err)
		vm.ErrorKind = client.Kind(st.Err)
		vm.Retryable = true
	}
	return vm
}

func buildCards(b core.Balance, f *format.Formatter, loading bool) []Card {
	value := func(n core.NullMoney) string {
		if loading {
			return LoadingText
		}
		return f.NullCurrency(n)
	}
	return []Card{
		{
			Key:     "income",
			Label:   "Entradas",
			Value:   value(b.Income),
			Icon:    "/static/income.svg",
			Alt:     "Income",
			TestID:  "balance-income",
			Pending: loading,
		},
		{
			Key:     "outcome",
			Label:   "Saídas",
			Value:   value(b.Outcome),
			Icon:    "/static/outcome.svg",
			Alt:     "Outcome",
			TestID:  "balance-outcome",
			Pending: loading,
		},
		{
			Key:     "total",
			Label:   "Total",
			Value:   value(b.Total),
			Icon:    "/static/total.svg",
			Alt:     "Total",
			TestID:  "balance-total",
			Total:   true,
			Pending: loading,
		},
	}
}

func buildRow(tx core.Transaction, f *format.Formatter) Row {
	class := ""
	if tx.Type.IsValid() {
		class = string(tx.Type)
	}
	category := strings.TrimSpace(tx.Category.Title)
	if category == "" {
		category = f.Placeholder()
	}
	return Row{
		ID:       tx.ID,
		Title:    tx.Title,
		Amount:   f.Transaction(tx),
		Category: category,
		Date:     f.Date(tx.CreatedAt),
		Class:    class,
	}
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, client.ErrTransport):
		return "Não foi possível conectar ao servidor de transações."
	case errors.Is(err, client.ErrStatus):
		return "O servidor de transações respondeu com erro."
	case errors.Is(err, client.ErrDecode):
		return "O servidor de transações enviou uma resposta inválida."
	default:
		return "Não foi possível carregar as transações."
	}
}
