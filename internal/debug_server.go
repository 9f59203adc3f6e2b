package internal

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

//go:embed inspect.html
var templatesFS embed.FS

type InspectRow struct {
	Path       string
	Collection string
	Size       string
	Detail     string
}

type StatsProvider func() map[string]any

type PageData struct {
	Prefix string
	Items  []InspectRow
	Stats  map[string]any
}

// StartDebugServer exposes a read-only HTML view of the document store
// at /inspect?prefix=<collection>. Meant for local debugging only; it
// binds all interfaces and has no auth.
func StartDebugServer(db *badger.DB, port int, statsProvider StatsProvider) {
	mux := http.NewServeMux()
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))

	mux.HandleFunc("/inspect", func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "users/"
		}

		data := PageData{
			Prefix: prefix,
			Stats:  make(map[string]any),
		}
		if statsProvider != nil {
			data.Stats = statsProvider()
		}

		_ = db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				_ = item.Value(func(val []byte) error {
					data.Items = append(data.Items, toRow(string(item.Key()), val))
					return nil
				})
			}
			return nil
		})

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	})

	go func() {
		_ = http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", port), mux)
	}()
}

func toRow(path string, val []byte) InspectRow {
	row := InspectRow{
		Path:       path,
		Collection: "default",
		Size:       strconv.Itoa(len(val)) + " bytes",
	}
	if i := strings.IndexByte(path, '/'); i > 0 {
		row.Collection = path[:i]
	}
	if strings.Contains(path, "/messages/") {
		row.Collection = "messages"
	}

	var doc map[string]any
	if err := json.Unmarshal(val, &doc); err != nil {
		row.Detail = "not a JSON document"
		return row
	}
	switch row.Collection {
	case "users":
		row.Detail = fmt.Sprintf("%v %v", doc["name"], doc["surname"])
	case "messages":
		row.Detail = fmt.Sprintf("%v", doc["text"])
	case "chats":
		row.Detail = fmt.Sprintf("%v", doc["name"])
	default:
		row.Detail = fmt.Sprintf("%d fields", len(doc))
	}
	if len(row.Detail) > 60 {
		row.Detail = row.Detail[:60] + "..."
	}
	return row
}
