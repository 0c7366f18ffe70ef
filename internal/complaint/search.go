package complaint

import (
	"context"
	"strings"

	"complaints/backend/internal/config"
	"complaints/backend/internal/models"

	"gorm.io/gorm"
)

// SearchComplaints matches query case-insensitively against content, author,
// category and location, then narrows by filters. Suggestions and filter
// options are computed over the whole corpus.
func (s *Local) SearchComplaints(ctx context.Context, query string, filters models.ComplaintFilters) (res *models.SearchResult, err error) {
	defer func() { s.observe("SearchComplaints", err) }()

	if err = checkPage(filters); err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	var candidates []models.Complaint
	var labels []string
	options := models.SearchFilterOptions{Categories: []string{}, Locations: []string{}}

	err = s.store.Read(ctx, func(tx *gorm.DB) error {
		q := newestFirst(applyFilters(tx.Model(&models.Complaint{}), filters))
		if err := q.Find(&candidates).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Category{}).Order("label ASC").Pluck("label", &labels).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Complaint{}).Distinct("category").Order("category ASC").Pluck("category", &options.Categories).Error; err != nil {
			return err
		}
		return tx.Model(&models.Complaint{}).Distinct("location").Order("location ASC").Pluck("location", &options.Locations).Error
	})
	if err != nil {
		return nil, err
	}

	if filters.Location != "" {
		candidates = inLocation(candidates, filters.Location)
	}

	matched := make([]models.Complaint, 0, len(candidates))
	for _, c := range candidates {
		if matches(c, needle) {
			matched = append(matched, c)
		}
	}

	return &models.SearchResult{
		Complaints:   page(matched, filters),
		TotalResults: len(matched),
		Suggestions:  suggest(needle, labels),
		Filters:      options,
	}, nil
}

func matches(c models.Complaint, needle string) bool {
	if needle == "" {
		return true
	}
	for _, field := range []string{c.Content, c.Author, c.Category, c.Location} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func page(list []models.Complaint, f models.ComplaintFilters) []models.Complaint {
	if f.Offset > 0 {
		if f.Offset >= len(list) {
			return []models.Complaint{}
		}
		list = list[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(list) {
		list = list[:f.Limit]
	}
	return list
}

// suggest returns up to config.MaxSuggestions category labels and generic
// terms containing needle.
func suggest(needle string, labels []string) []string {
	out := make([]string, 0, config.MaxSuggestions)
	seen := map[string]bool{}
	for _, term := range append(labels, genericSuggestions...) {
		key := strings.ToLower(term)
		if seen[key] || !strings.Contains(key, needle) {
			continue
		}
		seen[key] = true
		out = append(out, term)
		if len(out) == config.MaxSuggestions {
			break
		}
	}
	return out
}
