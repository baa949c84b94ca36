package dialogue

// Callback action tokens carried by inline buttons.
const (
	ActionFilter        = "filter"
	ActionSearch        = "search"
	ActionClearFilters  = "clear_filters"
	ActionAddListing    = "add_listing"
	ActionDeleteListing = "delete_listing"
	ActionMyListings    = "my_listings"
	ActionDelete        = "delete"
	ActionCancel        = "cancel"
)

// Button is an inline button; Action and Payload form its callback data.
type Button struct {
	Text    string
	Action  string
	Payload string
}

// Keyboard is an inline keyboard laid out in rows.
type Keyboard struct {
	Rows [][]Button
}

// Reply is one outgoing message.
type Reply struct {
	Text string
	// Markdown marks Text as MarkdownV2.
	Markdown bool
	Keyboard *Keyboard
}

func (e *Engine) mainMenu() *Keyboard {
	fields := e.cat.Fields()
	rows := make([][]Button, 0, len(fields)+5)
	for _, f := range fields {
		rows = append(rows, []Button{{Text: f.Label, Action: ActionFilter, Payload: f.Key}})
	}
	rows = append(rows,
		[]Button{{Text: btnSearch, Action: ActionSearch}},
		[]Button{{Text: btnAddListing, Action: ActionAddListing}},
		[]Button{{Text: btnDeleteListing, Action: ActionDeleteListing}},
		[]Button{{Text: btnMyListings, Action: ActionMyListings}},
		[]Button{{Text: btnClearFilters, Action: ActionClearFilters}},
	)
	return &Keyboard{Rows: rows}
}

func cancelKeyboard() *Keyboard {
	return &Keyboard{Rows: [][]Button{{{Text: btnCancel, Action: ActionCancel}}}}
}

func (e *Engine) menuReply(text string) []Reply {
	return []Reply{{Text: text, Keyboard: e.mainMenu()}}
}

func prompt(text string) []Reply {
	return []Reply{{Text: text, Keyboard: cancelKeyboard()}}
}

func plain(text string) []Reply {
	return []Reply{{Text: text}}
}
