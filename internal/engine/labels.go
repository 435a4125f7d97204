package engine

import (
	"sort"
	"time"

	"github.com/moolen/cascade/internal/clustering"
	"github.com/moolen/cascade/internal/models"
)

// buildClusters turns a clustering assignment over embeddable incidents
// into labeled clusters and noise points. Cluster severity is the most
// severe member severity; the error type is the most frequent member
// incident type, ties broken by most recent member end time. Noise
// incidents keep their own type and severity and are listed individually.
func buildClusters(assignment clustering.Assignment, incidents []models.Incident) ([]models.Cluster, []models.NoisePoint) {
	memberIdx := make(map[int][]int)
	var noise []models.NoisePoint

	for i, label := range assignment.Labels {
		if label == clustering.Noise {
			noise = append(noise, models.NoisePoint{
				IncidentID:   incidents[i].ID,
				IncidentType: incidents[i].IncidentType,
				Severity:     incidents[i].Severity,
			})
			continue
		}
		memberIdx[label] = append(memberIdx[label], i)
	}

	clusters := make([]models.Cluster, 0, len(memberIdx))
	for label := 0; label < assignment.NumClusters; label++ {
		members := memberIdx[label]
		if len(members) == 0 {
			continue
		}

		severity := models.DefaultTier
		ids := make([]string, 0, len(members))
		for _, i := range members {
			severity = models.MostSevere(severity, incidents[i].Severity)
			ids = append(ids, incidents[i].ID)
		}

		clusters = append(clusters, models.Cluster{
			ID:                label,
			Size:              len(members),
			Severity:          severity,
			ErrorType:         dominantType(members, incidents),
			MemberIncidentIDs: ids,
		})
	}

	sort.Slice(clusters, func(i, j int) bool { return clusters[i].ID < clusters[j].ID })
	return clusters, noise
}

// dominantType returns the most frequent incident type among members.
// When several types share the top count, the type whose most recent
// member closed last wins.
func dominantType(members []int, incidents []models.Incident) string {
	counts := make(map[string]int)
	latest := make(map[string]time.Time)

	for _, i := range members {
		typ := incidents[i].IncidentType
		counts[typ]++
		if incidents[i].EndTime.After(latest[typ]) {
			latest[typ] = incidents[i].EndTime
		}
	}

	var best string
	for typ, count := range counts {
		if best == "" {
			best = typ
			continue
		}
		switch {
		case count > counts[best]:
			best = typ
		case count == counts[best] && latest[typ].After(latest[best]):
			best = typ
		}
	}
	return best
}
