package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
)

// Small ops tool: dumps archived audit sessions straight from a Badger
// directory, without going through the service layer.
func main() {
	dbPath := flag.String("db", "./badger", "Path to badger DB")
	// Default scans the session summaries; use msg: to dump messages
	prefix := flag.String("prefix", "session:", "Prefix to scan")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Session", "Created", "Source", "Messages", "Toxic", "Safety"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()

			// The uuid -> key lookups are not worth printing
			if strings.HasPrefix(string(item.Key()), "idx:") {
				continue
			}

			err := item.Value(func(v []byte) error {
				var record struct {
					ID            string    `json:"id"`
					Source        string    `json:"source"`
					CreatedAt     time.Time `json:"created_at"`
					TotalMessages int       `json:"total_messages"`
					ToxicMessages int       `json:"toxic_messages"`
					SafetyScore   int       `json:"safety_score"`
				}
				if err := json.Unmarshal(v, &record); err != nil {
					fmt.Printf("Error unmarshaling key %s: %v\n", string(item.Key()), err)
					return nil
				}

				displayID := record.ID
				if len(displayID) > 8 {
					displayID = displayID[:8]
				}

				table.Append([]string{
					string(item.Key()),
					displayID,
					record.CreatedAt.Format("2006-01-02 15:04:05"),
					record.Source,
					fmt.Sprintf("%d", record.TotalMessages),
					fmt.Sprintf("%d", record.ToxicMessages),
					fmt.Sprintf("%d", record.SafetyScore),
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	return badger.Open(opts)
}
