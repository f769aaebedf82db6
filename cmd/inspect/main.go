package main

import (
	"chat-presence/internal"
	"chat-presence/repositories"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

var typeColors = map[string]color.Color{
	"message":         color.FgGreen,
	"private_message": color.FgMagenta,
	"status":          color.FgYellow,
}

func main() {
	dbPath := flag.String("db", "./data", "Path to badger DB")
	collection := flag.String("collection", repositories.MessagesCollection,
		fmt.Sprintf("Collection to dump (%s|%s)", repositories.MessagesCollection, repositories.ParticipantsCollection))
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	rows, err := internal.InspectCollection(db, *collection)
	if err != nil {
		log.Fatal(err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Seq", "ID", "Type", "Detail"})
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

	for _, row := range rows {
		table.Append([]string{
			strconv.FormatUint(row.Seq, 10),
			row.ID,
			colorize(row.Type),
			row.Detail,
		})
	}
	table.Render()
	fmt.Println(color.New(color.FgGray).Render(fmt.Sprintf("%d %s", len(rows), strings.ToLower(*collection))))
}

func colorize(messageType string) string {
	c, ok := typeColors[messageType]
	if !ok {
		return messageType
	}
	return c.Render(messageType)
}

// openDB opens the store read-only; the lock guard is bypassed so a running server does not block it.
func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}
