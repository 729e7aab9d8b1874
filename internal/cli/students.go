package cli

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// importColumns are the CSV header names accepted by "students import"
var importColumns = []string{"student_id", "first_name", "last_name", "birthday"}

type importRow struct {
	StudentID string `json:"student_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Birthday  string `json:"birthday"`
}

func newStudentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "students",
		Short: "Manage the student roster (administrators only)",
	}

	cmd.AddCommand(newStudentsImportCmd())
	cmd.AddCommand(newStudentsGetCmd())
	cmd.AddCommand(newStudentsFindCmd())
	cmd.AddCommand(newStudentsDeleteCmd())

	return cmd
}

func newStudentsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import student records from a CSV file",
		Long: `Import student records from a CSV file with the header
student_id,first_name,last_name,birthday. Use "-" to read standard input.
Birthdays are YYYY-MM-DD.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader
			if args[0] == "-" {
				r = cmd.InOrStdin()
			} else {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				r = f
			}

			rows, err := readStudentCSV(r)
			if err != nil {
				return err
			}

			body := map[string]any{"students": rows}
			var result ImportResult
			if err := client.Post(cmd.Context(), "/api/v1/admin/students", body, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newStudentsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <record-id>",
		Short: "Show a student record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result StudentRecord
			if err := client.Get(cmd.Context(), "/api/v1/admin/students/"+args[0], &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newStudentsFindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find <student-id>",
		Short: "Look up a student record by campus student id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/admin/students?" + url.Values{"student_id": {args[0]}}.Encode()
			var result StudentRecord
			if err := client.Get(cmd.Context(), path, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newStudentsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <record-id>",
		Short: "Delete a student record and its linked account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result DeleteResult
			if err := client.Delete(cmd.Context(), "/api/v1/admin/students/"+args[0], &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

// readStudentCSV parses a roster file. The header row is required; columns
// may appear in any order and unknown columns are ignored.
func readStudentCSV(r io.Reader) ([]importRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv file is empty")
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range importColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("csv header is missing column %q", col)
		}
	}

	var rows []importRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}

		rows = append(rows, importRow{
			StudentID: rec[index["student_id"]],
			FirstName: rec[index["first_name"]],
			LastName:  rec[index["last_name"]],
			Birthday:  rec[index["birthday"]],
		})
	}

	if len(rows) == 0 {
		return nil, errors.New("csv file has no student rows")
	}
	return rows, nil
}
