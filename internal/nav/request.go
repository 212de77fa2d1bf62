package nav

import (
	"github.com/oakwood-commons/dbdrill/internal/config"
	"github.com/oakwood-commons/dbdrill/internal/value"
)

type action int

const (
	// actionPush pushes the result on top of the current view.
	actionPush action = iota
	// actionReplace replaces a ParamEntry with its result.
	actionReplace
	// actionPopPush pops a LinkPicker and pushes the link result.
	actionPopPush
	// actionRefresh swaps the rows of the ResultList on top.
	actionRefresh
)

// Request is a query the machine is waiting on.
type Request struct {
	ID     uint64
	Entity *config.Entity
	Search *config.Search
	Query  string
	Args   []value.Value
	Title  string
	// Link is set when the request follows a link.
	Link *config.Link

	action  action
	refresh *ResultList
}

// Refresh reports whether the request re-executes the current ResultList.
func (r *Request) Refresh() bool { return r.action == actionRefresh }
