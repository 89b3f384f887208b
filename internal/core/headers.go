package core

// HeaderLabels maps "<Spreadsheet ID>:<JavaScript Name>" to a human readable
// column label.
type HeaderLabels map[string]string

// HeaderKey builds the lookup key for a sheet column.
func HeaderKey(sheetID, jsName string) string {
	return sheetID + ":" + jsName
}

// Label returns the label for a column, or jsName itself when unknown.
func (h HeaderLabels) Label(sheetID, jsName string) string {
	if l, ok := h[HeaderKey(sheetID, jsName)]; ok {
		return l
	}
	return jsName
}

// BuildHeaderLabels reads the Headers sheet. Rows missing any of the three
// fields are skipped and counted in a diagnostic.
func BuildHeaderLabels(table Table, aliases AliasTable) (HeaderLabels, []Diagnostic) {
	if aliases == nil {
		aliases = defaultAliases
	}

	labels := make(HeaderLabels, len(table.Rows))
	skipped := 0
	for _, row := range table.Rows {
		rec := NewRecord(row)
		sheetID, ok1 := rec.Field(FieldSpreadsheetID, aliases.Lookup(FieldSpreadsheetID))
		jsName, ok2 := rec.Field(FieldJavaScriptName, aliases.Lookup(FieldJavaScriptName))
		label, ok3 := rec.Field(FieldColumnName, aliases.Lookup(FieldColumnName))
		if !ok1 || !ok2 || !ok3 {
			skipped++
			continue
		}
		labels[HeaderKey(sheetID, jsName)] = label
	}

	var diags []Diagnostic
	if skipped > 0 {
		diags = append(diags, Diagnostic{
			Kind:    DiagHeaderSkipped,
			Sheet:   SheetHeaders,
			Count:   skipped,
			Message: "header rows missing sheet id, field name or label",
		})
	}
	return labels, diags
}
