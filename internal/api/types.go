package api

import "time"

// Account is a snapshot of the authenticated account, fetched on demand
// and never cached by this package.
type Account struct {
	ID      string
	Email   string
	Storage *Storage
	Plan    string
}

// Storage is the account's quota block. Optional in account responses.
type Storage struct {
	Used  uint64
	Total uint64
}

// Location is a server-designated storage location.
type Location struct {
	ID      string
	Name    string
	Country string
}

// Directory is a directory node. ParentID is empty only for the root.
type Directory struct {
	ID        string
	Name      string
	ParentID  string
	CreatedAt time.Time
}

// File is a file node.
type File struct {
	ID        string
	Name      string
	ParentID  string
	Size      uint64
	URL       string
	Note      string
	CreatedAt time.Time
}

// Listing is the server's current view of one directory. Ordering within
// Directories and Files is server-defined and preserved verbatim. Both
// slices are non-nil, so an empty directory is distinct from a failed load.
type Listing struct {
	ID          string
	Name        string
	Directories []Directory
	Files       []File
}

// Node is the sum type over the two listing entry variants. The interface
// is sealed: only Directory and File implement it, so a type switch over
// both is exhaustive.
type Node interface {
	NodeID() string
	NodeName() string

	isNode()
}

func (d Directory) NodeID() string   { return d.ID }
func (d Directory) NodeName() string { return d.Name }
func (d Directory) isNode()          {}

func (f File) NodeID() string   { return f.ID }
func (f File) NodeName() string { return f.Name }
func (f File) isNode()          {}

// Nodes returns the listing's entries as the concatenation of the
// directory and file sequences, in server order.
func (l *Listing) Nodes() []Node {
	nodes := make([]Node, 0, len(l.Directories)+len(l.Files))
	for _, d := range l.Directories {
		nodes = append(nodes, d)
	}

	for _, f := range l.Files {
		nodes = append(nodes, f)
	}

	return nodes
}
