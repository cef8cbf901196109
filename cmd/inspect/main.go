// inspect dumps work-item records or directory entries from BadgerDB as a
// table. Read-only: safe to run next to a live relayd.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"

	"floorlink/domain"
	"floorlink/store"
)

func main() {
	dbPath := flag.String("db", "", "Path to badger DB")
	prefix := flag.String("prefix", "item:", "Prefix to scan (item: or participant:)")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("-db is required")
	}

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	switch {
	case strings.HasPrefix(*prefix, "item:"):
		table.SetHeader([]string{"Key", "Identifier", "Owner", "Problem", "Description", "Created"})
	case strings.HasPrefix(*prefix, "participant:"):
		table.SetHeader([]string{"Key", "Name", "Roles", "Created"})
	default:
		table.SetHeader([]string{"Key", "Value"})
	}
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
			key := string(item.Key())

			err := item.Value(func(v []byte) error {
				table.Append(renderRow(key, v))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal("Scan failed: ", err)
	}

	table.Render()
}

func renderRow(key string, value []byte) []string {
	switch {
	case strings.HasPrefix(key, "item:"):
		var rec domain.WorkItemRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			return []string{key, "<decode error>", "", "", "", ""}
		}
		return []string{key, rec.Identifier, string(rec.Owner), rec.ProblemType,
			rec.Description, rec.CreatedAt.Format("2006-01-02 15:04")}
	case strings.HasPrefix(key, "participant:"):
		var p store.Participant
		if err := json.Unmarshal(value, &p); err != nil {
			return []string{key, "<decode error>", "", ""}
		}
		return []string{key, p.DisplayName, strings.Join(p.Roles, ","),
			p.CreatedAt.Format("2006-01-02 15:04")}
	default:
		return []string{key, string(value)}
	}
}
