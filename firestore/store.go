// Package firestore is the Cloud Firestore report store, matching the
// collection layout the Bendy SPA was originally deployed against.
package firestore

import (
	"context"
	"fmt"
	"time"

	cf "cloud.google.com/go/firestore"
	"github.com/apex/log"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"bendy/models"
)

// reportDoc is the stored document shape.
type reportDoc struct {
	LocationID   string    `firestore:"locationId"`
	LocationName string    `firestore:"locationName"`
	CrowdLevel   string    `firestore:"crowdLevel"`
	Comment      *string   `firestore:"comment"`
	Timestamp    time.Time `firestore:"timestamp"`
	ExpiresAt    time.Time `firestore:"expiresAt"`
}

// Store is the Firestore-backed report store.
type Store struct {
	client     *cf.Client
	collection string
}

// NewStore connects to Firestore. An empty credentials file falls back
// to application default credentials.
func NewStore(ctx context.Context, projectID, credentialsFile, collection string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("firestore project id is required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := cf.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &Store{client: client, collection: collection}, nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// InsertReport writes a new crowd report. The timestamp is assigned by
// Firestore's server clock; expiresAt is computed from the local clock
// the way the original writer did, so a skewed client shifts expiry but
// never report ordering.
func (s *Store) InsertReport(ctx context.Context, locationID, locationName string, level models.CrowdLevel, comment *string) (models.CrowdReport, error) {
	expiresAt := time.Now().Add(models.ReportDuration)

	ref, _, err := s.client.Collection(s.collection).Add(ctx, map[string]interface{}{
		"locationId":   locationID,
		"locationName": locationName,
		"crowdLevel":   string(level),
		"comment":      comment,
		"timestamp":    cf.ServerTimestamp,
		"expiresAt":    expiresAt,
	})
	if err != nil {
		return models.CrowdReport{}, fmt.Errorf("failed to add report: %w", err)
	}

	snap, err := ref.Get(ctx)
	if err != nil {
		return models.CrowdReport{}, fmt.Errorf("failed to read back report %s: %w", ref.ID, err)
	}
	report, err := decodeReport(snap)
	if err != nil {
		return models.CrowdReport{}, err
	}
	return report, nil
}

// GetReportsSince returns a location's reports with timestamp >= since,
// newest first, capped at limit.
func (s *Store) GetReportsSince(ctx context.Context, locationID string, since time.Time, limit int) ([]models.CrowdReport, error) {
	iter := s.client.Collection(s.collection).
		Where("locationId", "==", locationID).
		Where("timestamp", ">=", since).
		OrderBy("timestamp", cf.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	return collectReports(iter)
}

// GetActiveReports returns unexpired reports, newest first. Firestore
// allows only one range field per query, so the location filter is
// applied after the fetch, as the original client did.
func (s *Store) GetActiveReports(ctx context.Context, locationID string) ([]models.CrowdReport, error) {
	iter := s.client.Collection(s.collection).
		Where("expiresAt", ">", time.Now()).
		OrderBy("expiresAt", cf.Desc).
		OrderBy("timestamp", cf.Desc).
		Documents(ctx)
	defer iter.Stop()

	reports, err := collectReports(iter)
	if err != nil {
		return nil, err
	}
	if locationID == "" {
		return reports, nil
	}
	filtered := []models.CrowdReport{}
	for _, r := range reports {
		if r.LocationID == locationID {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

func collectReports(iter *cf.DocumentIterator) ([]models.CrowdReport, error) {
	reports := []models.CrowdReport{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate reports: %w", err)
		}
		report, err := decodeReport(snap)
		if err != nil {
			log.Warnf("skipping report %s: %v", snap.Ref.ID, err)
			continue
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// decodeReport validates a loosely-typed document at the read boundary.
func decodeReport(snap *cf.DocumentSnapshot) (models.CrowdReport, error) {
	var doc reportDoc
	if err := snap.DataTo(&doc); err != nil {
		return models.CrowdReport{}, fmt.Errorf("malformed report document: %w", err)
	}
	level, err := models.ParseCrowdLevel(doc.CrowdLevel)
	if err != nil {
		return models.CrowdReport{}, err
	}
	comment := doc.Comment
	if comment != nil && *comment == "" {
		comment = nil
	}
	return models.CrowdReport{
		ID:           snap.Ref.ID,
		LocationID:   doc.LocationID,
		LocationName: doc.LocationName,
		CrowdLevel:   level,
		Comment:      comment,
		Timestamp:    doc.Timestamp,
		ExpiresAt:    doc.ExpiresAt,
	}, nil
}
