package bookmarklet

// Defaults returns the items seeded into an empty store.
func Defaults() []*Item {
	return []*Item{
		{
			Title:    "Sample: Alert",
			MatchJS:  "function (url) { return true; }",
			CodeJS:   "function () { alert('hello'); }",
			Position: 0,
		},
		{
			Title:    "Example.com Only",
			MatchJS:  "function (url) { return url.hostname === 'example.com'; }",
			CodeJS:   "function () { alert('example.com page'); }",
			Position: 1,
		},
		{
			Title:    "Admin Path Only",
			MatchJS:  "function (url) { return url.pathname.startsWith('/admin'); }",
			CodeJS:   "function () { alert('admin page'); }",
			Position: 2,
		},
	}
}
