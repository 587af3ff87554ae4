// Package spanner reads the Singers table from Cloud Spanner.
//
// All reads go through single-use read-only transactions; session pooling, retries and
// consistency are owned by the client library.
package spanner

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"
)

// DatabaseName builds the fully qualified database resource name.
func DatabaseName(projectID, instanceID, databaseID string) string {
	return fmt.Sprintf("projects/%s/instances/%s/databases/%s", projectID, instanceID, databaseID)
}

// NewClient opens a Spanner client for the given database.
// SPANNER_EMULATOR_HOST is honored by the client library itself.
func NewClient(ctx context.Context, projectID, instanceID, databaseID string) (*spanner.Client, error) {
	if projectID == "" || instanceID == "" || databaseID == "" {
		return nil, errors.New("spanner: project, instance and database ids are required")
	}
	client, err := spanner.NewClient(ctx, DatabaseName(projectID, instanceID, databaseID))
	if err != nil {
		return nil, fmt.Errorf("spanner: new client: %w", err)
	}
	return client, nil
}

// Ping issues SELECT 1 through a single-use transaction.
func Ping(ctx context.Context, client *spanner.Client) error {
	iter := client.Single().Query(ctx, spanner.NewStatement("SELECT 1"))
	defer iter.Stop()
	_, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return nil
	}
	return err
}
