package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/good-yellow-bee/rostergrid/internal/models"
)

// projectDocument is the stored shape of a project.
type projectDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Name          string             `bson:"name"`
	StartTime     int                `bson:"start_time"`
	EndTime       int                `bson:"end_time"`
	Roles         []string           `bson:"roles"`
	VolunteerData models.Grid        `bson:"volunteer_data"`
	CreatedAt     time.Time          `bson:"created_at,omitempty"`
	UpdatedAt     time.Time          `bson:"updated_at,omitempty"`
}

func (d *projectDocument) toModel() *models.Project {
	return normalize(&models.Project{
		ID:            d.ID.Hex(),
		Name:          d.Name,
		StartTime:     d.StartTime,
		EndTime:       d.EndTime,
		Roles:         d.Roles,
		VolunteerData: d.VolunteerData,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	})
}

type mongoProjectRepo struct {
	coll *mongo.Collection
}

// Create upserts the new document under a fresh id so $currentDate stamps
// both timestamps with the server clock, and reads them back.
func (r *mongoProjectRepo) Create(ctx context.Context, project *models.Project) error {
	roles := project.Roles
	if roles == nil {
		roles = []string{}
	}
	grid := project.VolunteerData
	if grid == nil {
		grid = models.Grid{}
	}

	oid := primitive.NewObjectID()
	update := bson.M{
		"$setOnInsert": bson.M{
			"name":           project.Name,
			"start_time":     project.StartTime,
			"end_time":       project.EndTime,
			"roles":          roles,
			"volunteer_data": grid,
		},
		"$currentDate": bson.M{"created_at": true, "updated_at": true},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc projectDocument
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		return fmt.Errorf("insert project: %w", err)
	}

	stored := doc.toModel()
	project.ID = oid.Hex()
	project.CreatedAt = stored.CreatedAt
	project.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *mongoProjectRepo) GetByID(ctx context.Context, id string) (*models.Project, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		//nolint:nilnil
		return nil, nil
	}

	var doc projectDocument
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project by id: %w", err)
	}
	return doc.toModel(), nil
}

// Update sets the patched fields and stamps updated_at with the server clock.
func (r *mongoProjectRepo) Update(ctx context.Context, id string, patch *models.ProjectPatch) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("update project %s: %w", id, ErrNotFound)
	}

	set := bson.M{}
	if patch != nil {
		if patch.Name != nil {
			set["name"] = *patch.Name
		}
		if patch.StartTime != nil {
			set["start_time"] = *patch.StartTime
		}
		if patch.EndTime != nil {
			set["end_time"] = *patch.EndTime
		}
		if patch.Roles != nil {
			set["roles"] = *patch.Roles
		}
		if patch.VolunteerData != nil {
			set["volunteer_data"] = patch.VolunteerData
		}
	}

	update := bson.M{"$currentDate": bson.M{"updated_at": true}}
	if len(set) > 0 {
		update["$set"] = set
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update project %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *mongoProjectRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("delete project %s: %w", id, ErrNotFound)
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete project %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *mongoProjectRepo) List(ctx context.Context) ([]*models.Project, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []projectDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}

	projects := make([]*models.Project, 0, len(docs))
	for i := range docs {
		projects = append(projects, docs[i].toModel())
	}
	return projects, nil
}
