// Package search maintains the Bluge index over user profiles that backs
// friend search: case-insensitive substring match on the display name plus
// course/college/job filters.
package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"campus-sync/domain"

	"github.com/blugelabs/bluge"
)

// Directory indexes user profiles. Name, college and job are stored as
// lowercase keywords so wildcard queries give true substring semantics;
// course is an exact-match keyword.
type Directory struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewDirectory(writer *bluge.Writer, log *slog.Logger) *Directory {
	return &Directory{writer: writer, log: log}
}

// Filters narrows a search: Course matches exactly, College and Job by
// case-insensitive substring. Empty fields are inactive.
type Filters struct {
	Course  string
	College string
	Job     string
}

// Index inserts or replaces a user's directory entry.
func (d *Directory) Index(user domain.User) error {
	doc := bluge.NewDocument(user.ID)
	doc.AddField(bluge.NewKeywordField("fullName", normalize(user.DisplayName())))
	doc.AddField(bluge.NewKeywordField("course", normalize(user.Course)))
	doc.AddField(bluge.NewKeywordField("college", normalize(user.College)))
	doc.AddField(bluge.NewKeywordField("job", normalize(user.Job)))
	return d.writer.Update(doc.ID(), doc)
}

func (d *Directory) Remove(userID string) error {
	return d.writer.Delete(bluge.Identifier(userID))
}

// Search returns the ids of users whose normalized display name contains
// every term and who match all active filters, excluding the searching
// user. A blank search (no terms, no active filters) lists the whole
// directory. Results are sorted by id so they are stable across runs.
func (d *Directory) Search(ctx context.Context, terms []string, filters Filters, excludeID string) ([]string, error) {
	query := bluge.NewBooleanQuery()
	musts := 0
	for _, term := range terms {
		term = normalize(term)
		if term == "" {
			continue
		}
		query.AddMust(bluge.NewWildcardQuery("*" + term + "*").SetField("fullName"))
		musts++
	}
	if filters.Course != "" {
		query.AddMust(bluge.NewTermQuery(normalize(filters.Course)).SetField("course"))
		musts++
	}
	if filters.College != "" {
		query.AddMust(bluge.NewWildcardQuery("*" + normalize(filters.College) + "*").SetField("college"))
		musts++
	}
	if filters.Job != "" {
		query.AddMust(bluge.NewWildcardQuery("*" + normalize(filters.Job) + "*").SetField("job"))
		musts++
	}
	if musts == 0 {
		// A boolean query with no positive clause matches nothing, which
		// would make a blank search return an empty directory.
		query.AddMust(bluge.NewMatchAllQuery())
	}
	if excludeID != "" {
		query.AddMustNot(bluge.NewTermQuery(excludeID).SetField("_id"))
	}

	reader, err := d.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			d.log.Warn("Closing index reader failed", "error", err)
		}
	}()

	iterator, err := reader.Search(ctx, bluge.NewAllMatches(query))
	if err != nil {
		return nil, err
	}

	var ids []string
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				ids = append(ids, string(value))
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	// NewAllMatches yields hits in score order, which is meaningless for
	// exact keyword clauses. Sort so results are deterministic.
	sort.Strings(ids)
	return ids, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
