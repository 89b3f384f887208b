package core

// fixtureSheets is a small workbook covering every join the event map uses.
func fixtureSheets() Sheets {
	return Sheets{
		SheetEvents: {
			Columns: []string{"EVID", "LOCID", "BIOID", "INSID", "DOEID", "BIBID", "BIBPAGES", "EYEAR", "LYEAR", "CERTLOC", "CERTEDATE", "CERTRANGE", "DATERANGE", "EINFO"},
			Rows: []Row{
				{"EVID": "EV001", "LOCID": "LOC1", "BIOID": "BCO1", "INSID": "INS1", "DOEID": "DOE1;DOE2", "BIBID": "BIB1; BIB2", "BIBPAGES": "f. 12r", "EYEAR": "1503", "LYEAR": "1505", "CERTLOC": "1", "DATERANGE": "1503-1505", "EINFO": "Mass performed at the cathedral"},
				{"EVID": "EV002", "LOCID": "LOC2", "BIOID": "BMU1", "EYEAR": "1507", "LYEAR": "1507", "CERTLOC": "3", "EINFO": "Hired as singer"},
				{"EVID": "EV003", "LOCID": "LOC3", "BIOID": "BNO1", "EYEAR": "1512", "EINFO": "Patron payment"},
				{"EVID": "EV004", "LOCID": "LOC1", "BIOID": "XYZ1", "EYEAR": "1550", "EINFO": "Unknown person type"},
				{"EVID": "EV005", "LOCID": "LOC9", "BIOID": "BCO1", "EINFO": "Undated letter"},
			},
		},
		SheetLocations: {
			Columns: []string{"LOCID", "LOCNAME", "CITY", "COORD"},
			Rows: []Row{
				{"LOCID": "LOC1", "LOCNAME": "Duomo", "CITY": "Milan", "COORD": "45.46,9.19"},
				{"LOCID": "LOC2", "LOCNAME": "Sistine Chapel", "CITY": "Rome", "COORD": "41.90,12.45"},
				{"LOCID": "LOC3", "LOCNAME": "Palazzo", "CITY": "Ferrara", "COORD": "not a coordinate"},
			},
		},
		SheetComposers: {
			Columns: []string{"BCOID", "BCONAME", "ALIAS"},
			Rows: []Row{
				{"BCOID": "BCO1", "BCONAME": "Josquin des Prez", "ALIAS": "Josquin; Jodocus Pratensis"},
			},
		},
		SheetMusicians: {
			Columns: []string{"BMUID", "BMUNAME"},
			Rows: []Row{
				{"BMUID": "BMU1", "BMUNAME": "Gaspar van Weerbeke"},
			},
		},
		SheetNonMusicians: {
			Columns: []string{"BNOID", "BNONAME", "ALIAS"},
			Rows: []Row{
				{"BNOID": "BNO1", "BNONAME": "Ercole d'Este", "ALIAS": ""},
			},
		},
		SheetInstitutions: {
			Columns: []string{"INSID", "INSNAME"},
			Rows: []Row{
				{"INSID": "INS1", "INSNAME": "Cathedral Chapel"},
			},
		},
		SheetDocEntries: {
			Columns: []string{"DOEID", "ARDID"},
			Rows: []Row{
				{"DOEID": "DOE1", "ARDID": "ARD1"},
				{"DOEID": "DOE2", "ARDID": "ARD2"},
			},
		},
		SheetArchivalDocs: {
			Columns: []string{"ARDID", "ARC", "ARCFOND", "SIG"},
			Rows: []Row{
				{"ARDID": "ARD1", "ARC": "Archivio di Stato", "ARCFOND": "Sforzesco", "SIG": "cart. 1"},
				{"ARDID": "ARD2", "ARC": "Archivio Capitolare"},
			},
		},
		SheetBibliography: {
			Columns: []string{"BIBID", "AUTHOR", "ARTNAME", "VOLNAME", "YEAR", "PAGES"},
			Rows: []Row{
				{"BIBID": "BIB1", "AUTHOR": "Merkley", "ARTNAME": "Josquin in Milan", "VOLNAME": "JAMS", "YEAR": "1999", "PAGES": "1-40"},
				{"BIBID": "BIB2", "VOLNAME": "Sources"},
			},
		},
		SheetHeaders: {
			Columns: []string{"Spreadsheet ID", "JavaScript Name", "Column Name"},
			Rows: []Row{
				{"Spreadsheet ID": "Events", "JavaScript Name": "EYEAR", "Column Name": "Earliest Year"},
				{"Spreadsheet ID": "Events", "JavaScript Name": "", "Column Name": "Broken"},
			},
		},
	}
}

// fixtureDataset builds the dataset and normalized events for fixtureSheets.
func fixtureDataset() (Dataset, []Event) {
	sheets := fixtureSheets()
	idx, _ := BuildIndices(sheets, testSchema())
	events, _ := NormalizeEvents(sheets[SheetEvents], DefaultAliases())
	return NewDataset(idx, DefaultAliases()), events
}

func eventIDs(events []Event) []string {
	ids := make([]string, len(events))
	for i, ev := range events {
		ids[i] = ev.ID
	}
	return ids
}
