package ledger

import (
	"errors"
	"strings"
	"testing"
)

func testTable(rows ...[]string) *Table {
	return &Table{Header: append([]string(nil), DefaultHeader...), Rows: rows}
}

func TestColumnIndex(t *testing.T) {
	table := testTable()

	idx, err := table.ColumnIndex(ColStatus)
	if err != nil {
		t.Fatalf("ColumnIndex: %v", err)
	}
	if idx != 1 {
		t.Errorf("Status index = %d, want 1", idx)
	}

	_, err = table.ColumnIndex("No Such Column")
	if !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("err = %v, want ErrColumnNotFound", err)
	}
}

func TestResolveColumnsMissingColumn(t *testing.T) {
	table := &Table{Header: []string{ColOrderNo, ColStatus}}
	if _, err := table.ResolveColumns(); !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("err = %v, want ErrColumnNotFound", err)
	}
}

func TestReadCellRaggedRows(t *testing.T) {
	table := testTable([]string{"172086_1", " Prepaid "})

	if got := table.ReadCell(0, 1); got != "Prepaid" {
		t.Errorf("ReadCell = %q, want trimmed value", got)
	}
	if got := table.ReadCell(0, 5); got != "" {
		t.Errorf("ReadCell past row end = %q, want empty", got)
	}
	if got := table.ReadCell(3, 0); got != "" {
		t.Errorf("ReadCell past table end = %q, want empty", got)
	}
	if got := table.ReadCell(-1, 0); got != "" {
		t.Errorf("ReadCell negative row = %q, want empty", got)
	}
}

func TestTypedRows(t *testing.T) {
	table := testTable(
		[]string{" 172086_1 ", "prepaid", "https://t/1", "AWB1", "Delhivery", "Asha", ""},
		[]string{"172086_2", "Wonky", "", "", "", "", ""},
	)
	cols, err := table.ResolveColumns()
	if err != nil {
		t.Fatalf("ResolveColumns: %v", err)
	}

	rows := table.TypedRows(cols)
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0].OrderNo != "172086_1" {
		t.Errorf("OrderNo = %q, want trimmed", rows[0].OrderNo)
	}
	if rows[0].Status != StatusPrepaid {
		t.Errorf("Status = %v, want Prepaid", rows[0].Status)
	}
	if rows[0].Index != 0 || rows[1].Index != 1 {
		t.Errorf("indexes = %d, %d", rows[0].Index, rows[1].Index)
	}
	if rows[1].Status != StatusUnknown || rows[1].RawStatus != "Wonky" {
		t.Errorf("unknown status row = %v raw %q", rows[1].Status, rows[1].RawStatus)
	}
}

func TestCustomerNameLookup(t *testing.T) {
	table := testTable(
		[]string{"172086_1", "", "", "", "", "Old Name", ""},
		[]string{"172086_2", "", "", "", "", "", ""}, // blank name skipped
		[]string{"", "", "", "", "", "Orphan", ""},   // blank order skipped
		[]string{"172086_3", "", "", "", "", "Asha Patel", ""},
		[]string{"172086_4", "", "", "", "", "Ravi Shah", ""},
	)
	cols, err := table.ResolveColumns()
	if err != nil {
		t.Fatalf("ResolveColumns: %v", err)
	}

	convert := func(orderNo string) string {
		return strings.Replace(orderNo, "172086_", "#KC", 1)
	}

	lookup := table.CustomerNameLookup(cols, 2, convert)
	if len(lookup) != 2 {
		t.Fatalf("lookup = %v, want the last 2 usable rows", lookup)
	}
	if lookup["#KC3"] != "Asha Patel" || lookup["#KC4"] != "Ravi Shah" {
		t.Errorf("lookup = %v", lookup)
	}
	if _, ok := lookup["#KC1"]; ok {
		t.Errorf("row outside the scan window leaked into the lookup")
	}

	// A zero limit scans everything.
	all := table.CustomerNameLookup(cols, 0, convert)
	if len(all) != 3 {
		t.Errorf("unlimited lookup = %v, want 3 entries", all)
	}
}
