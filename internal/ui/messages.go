package ui

// helpPagerMsg reports that the help pager was closed
type helpPagerMsg struct {
	err error
}
