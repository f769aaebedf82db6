package internal

import (
	"chat-presence/storage"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

//go:embed inspect.html
var templatesFS embed.FS

// InspectRow is one stored document flattened for display.
type InspectRow struct {
	Seq    uint64
	ID     string
	Type   string
	Detail string
}

type PageData struct {
	Collection  string
	Collections []string
	Items       []InspectRow
}

// DocumentRow flattens a document. Type falls back to "-" for documents without one.
func DocumentRow(doc storage.Document) InspectRow {
	row := InspectRow{Seq: doc.Seq, ID: doc.ID, Type: doc.Field("type"), Detail: "-"}
	if row.Type == "" {
		row.Type = "-"
	}
	if len(row.ID) > 8 {
		row.ID = row.ID[:8]
	}

	keys := lo.Without(lo.Keys(doc.Fields), "type")
	slices.Sort(keys)
	if len(keys) > 0 {
		row.Detail = strings.Join(lo.Map(keys, func(key string, _ int) string {
			return fmt.Sprintf("%s=%v", key, doc.Fields[key])
		}), " ")
	}
	return row
}

// InspectCollection reads every document of a collection as display rows.
func InspectCollection(db *badger.DB, collection string) ([]InspectRow, error) {
	var rows []InspectRow
	err := storage.ScanBadger(db, collection, func(doc storage.Document) error {
		rows = append(rows, DocumentRow(doc))
		return nil
	})
	return rows, err
}

// NewDebugServer serves an HTML view of the Badger collections on endpoint.
// The caller starts and shuts the server down.
func NewDebugServer(db *badger.DB, address, endpoint string, collections []string, log *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))

	mux.HandleFunc(endpoint, func(w http.ResponseWriter, r *http.Request) {
		collection := r.URL.Query().Get("collection")
		if collection == "" {
			collection = collections[0]
		}
		if !slices.Contains(collections, collection) {
			http.Error(w, fmt.Sprintf("unknown collection %q", collection), http.StatusNotFound)
			return
		}

		rows, err := InspectCollection(db, collection)
		if err != nil {
			log.Error("Debug inspection failed", "collection", collection, "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, PageData{Collection: collection, Collections: collections, Items: rows})
	})

	return &http.Server{Addr: address, Handler: mux}
}
