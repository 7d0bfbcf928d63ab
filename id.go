package jobstats

import "github.com/xraph/jobstats/id"

// ID is the identifier type shared by jobs and workers.
type ID = id.ID

// Prefix identifies the entity type encoded in an ID.
type Prefix = id.Prefix
