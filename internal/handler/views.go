package handler

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/pos-console/internal/domain/auth"
	"github.com/xenking/pos-console/internal/domain/product"
	"github.com/xenking/pos-console/internal/domain/store"
	"github.com/xenking/pos-console/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{
	"login", "dashboard", "products", "product_form", "stores", "flavors",
	"pos", "receipt", "sales", "placeholder", "error",
}

// page is the data passed to every template.
type page struct {
	Title   string
	Active  string
	Path    string
	User    *auth.User
	Stores  []store.Store
	StoreID int64
	Alerts  []session.Alert
	Now     time.Time
	Data    any
}

type views struct {
	pages map[string]*template.Template
}

func parseViews() (*views, error) {
	funcs := template.FuncMap{
		"money":      formatMoney,
		"date":       formatDate,
		"datetime":   formatDateTime,
		"stockClass": stockClass,
		"percent":    formatPercent,
		"daysLeft": func(e store.ExpiringItem, now time.Time) int {
			return e.DaysLeft(now)
		},
	}

	v := &views{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s", name)
		}
		v.pages[name] = t
	}
	return v, nil
}

func (h *Handler) page(st *session.State, title, active string, data any) page {
	user := st.User
	return page{
		Title:   title,
		Active:  active,
		User:    &user,
		Stores:  st.Stores(),
		StoreID: st.StoreID(),
		Alerts:  st.Alerts(),
		Now:     h.now(),
		Data:    data,
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	t, ok := h.views.pages[name]
	if !ok {
		zctx.From(r.Context()).Error("Unknown template", zap.String("template", name))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if p.Now.IsZero() {
		p.Now = h.now()
	}
	if p.Path == "" {
		p.Path = r.URL.RequestURI()
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, p); err != nil {
		zctx.From(r.Context()).Error("Render template", zap.String("template", name), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	p := page{Title: http.StatusText(status), Data: msg}
	if st := stateFrom(r.Context()); st != nil {
		p = h.page(st, http.StatusText(status), "", msg)
	}
	h.render(w, r, status, "error", p)
}

// formatMoney renders an amount as LKR with thousands separators.
func formatMoney(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	b.WriteString("LKR ")
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// formatPercent renders a rate such as 0.125 as "12.5%".
func formatPercent(rate decimal.Decimal) string {
	return rate.Shift(2).String() + "%"
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format("Jan 2, 2006")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format("Jan 2, 2006 15:04")
}

func stockClass(p product.Product) string {
	switch p.Stock() {
	case product.StockOut:
		return "danger"
	case product.StockLow:
		return "warning"
	default:
		return "success"
	}
}
