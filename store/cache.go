/*
cache.go - Read-through snapshot cache over a DocumentStore

PURPOSE:
  Every read path in the portal goes through one cached snapshot of the
  hot collections. The snapshot is rebuilt at most once per TTL window,
  concurrent rebuilds are collapsed into a single storage read, and
  every write path invalidates the snapshot after a write-through to
  the backing store.

KEY CONCEPTS:
  Snapshot:     typed, decoded slices per collection
  single-flight: one in-flight rebuild no matter how many callers miss
  write-through: typed sync methods replace a collection as one logical
                 batch (UpsertMany then DeleteWhereIDNotIn)

APPLICATION SPLIT:
  Leave and recruitment applications share the applications collection.
  The cache splits them by the document's type field on read, and each
  sync keeps the other half's documents alive when it replaces its own.
*/
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/brillar/hr-portal/learning"
	"github.com/brillar/hr-portal/leave"
	"github.com/brillar/hr-portal/recruit"
)

// DefaultTTL is how long a snapshot is served before the next read
// rebuilds it.
const DefaultTTL = 30 * time.Second

// Snapshot is one consistent decoded view of the cached collections. A
// snapshot is shared by every reader inside the TTL window and must be
// treated as read-only: mutating paths copy what they change and go
// through a Sync method.
type Snapshot struct {
	Employees           []leave.Employee
	LeaveApplications   []leave.Application
	RecruitApplications []recruit.Application
	Holidays            []leave.Holiday
	Positions           []recruit.Position
	Candidates          []recruit.Candidate

	Courses     []learning.Course
	Modules     []learning.Module
	Lessons     []learning.Lesson
	Assets      []learning.LessonAsset
	Assignments []learning.CourseAssignment
	Progress    []learning.Progress

	LoadedAt time.Time
}

// Cache is the read-through facade. It also implements leave.DataSource.
type Cache struct {
	docs DocumentStore
	ttl  time.Duration

	mu       sync.RWMutex
	snap     *Snapshot
	loadedAt time.Time

	group singleflight.Group
}

// NewCache wraps a DocumentStore. A non-positive TTL falls back to
// DefaultTTL.
func NewCache(docs DocumentStore, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{docs: docs, ttl: ttl}
}

// Docs exposes the backing store for the few collections that bypass the
// cache (interview sessions and results).
func (c *Cache) Docs() DocumentStore { return c.docs }

// Get returns the current snapshot, rebuilding it when the TTL expired.
func (c *Cache) Get(ctx context.Context) (*Snapshot, error) {
	c.mu.RLock()
	if c.snap != nil && time.Since(c.loadedAt) < c.ttl {
		snap := c.snap
		c.mu.RUnlock()
		return snap, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do("snapshot", func() (any, error) {
		c.mu.RLock()
		if c.snap != nil && time.Since(c.loadedAt) < c.ttl {
			snap := c.snap
			c.mu.RUnlock()
			return snap, nil
		}
		c.mu.RUnlock()

		snap, err := c.load(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.snap = snap
		c.loadedAt = snap.LoadedAt
		c.mu.Unlock()
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Invalidate discards the snapshot so the next read hits storage.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.snap = nil
	c.loadedAt = time.Time{}
	c.mu.Unlock()
}

func (c *Cache) load(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{LoadedAt: time.Now()}

	var err error
	if snap.Employees, err = loadCollection[leave.Employee](ctx, c.docs, ColEmployees); err != nil {
		return nil, err
	}
	if err := c.loadApplications(ctx, snap); err != nil {
		return nil, err
	}
	if snap.Holidays, err = loadCollection[leave.Holiday](ctx, c.docs, ColHolidays); err != nil {
		return nil, err
	}
	if snap.Positions, err = loadCollection[recruit.Position](ctx, c.docs, ColPositions); err != nil {
		return nil, err
	}
	if snap.Candidates, err = loadCollection[recruit.Candidate](ctx, c.docs, ColCandidates); err != nil {
		return nil, err
	}
	if snap.Courses, err = loadCollection[learning.Course](ctx, c.docs, ColLearningCourses); err != nil {
		return nil, err
	}
	if snap.Modules, err = loadCollection[learning.Module](ctx, c.docs, ColLearningModules); err != nil {
		return nil, err
	}
	if snap.Lessons, err = loadCollection[learning.Lesson](ctx, c.docs, ColLearningLessons); err != nil {
		return nil, err
	}
	if snap.Assets, err = loadCollection[learning.LessonAsset](ctx, c.docs, ColLearningLessonAssets); err != nil {
		return nil, err
	}
	if snap.Assignments, err = loadCollection[learning.CourseAssignment](ctx, c.docs, ColLearningAssignments); err != nil {
		return nil, err
	}
	if snap.Progress, err = loadCollection[learning.Progress](ctx, c.docs, ColLearningProgress); err != nil {
		return nil, err
	}
	return snap, nil
}

func loadCollection[T any](ctx context.Context, ds DocumentStore, collection string) ([]T, error) {
	docs, err := ds.FindAll(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", collection, err)
	}
	items, err := DecodeAll[T](docs)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", collection, err)
	}
	return items, nil
}

func (c *Cache) loadApplications(ctx context.Context, snap *Snapshot) error {
	docs, err := c.docs.FindAll(ctx, ColApplications)
	if err != nil {
		return fmt.Errorf("read %s: %w", ColApplications, err)
	}
	for _, doc := range docs {
		if isRecruitmentDoc(doc.Body) {
			var app recruit.Application
			if err := json.Unmarshal(doc.Body, &app); err != nil {
				return fmt.Errorf("decode application %q: %w", doc.ID, err)
			}
			snap.RecruitApplications = append(snap.RecruitApplications, app)
			continue
		}
		var app leave.Application
		if err := json.Unmarshal(doc.Body, &app); err != nil {
			return fmt.Errorf("decode application %q: %w", doc.ID, err)
		}
		snap.LeaveApplications = append(snap.LeaveApplications, app)
	}
	return nil
}

func isRecruitmentDoc(body json.RawMessage) bool {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return false
	}
	return strings.EqualFold(probe.Type, recruit.TypeRecruitment)
}

// =============================================================================
// WRITE-THROUGH SYNCS
// =============================================================================

// syncCollection replaces a collection: upsert the new documents, then
// delete everything not in the keep set. The cache is invalidated only
// after both steps succeed.
func (c *Cache) syncCollection(ctx context.Context, collection string, docs []Document, extraKeepIDs []string) error {
	if err := c.docs.UpsertMany(ctx, collection, docs); err != nil {
		return fmt.Errorf("sync %s: %w", collection, err)
	}
	keep := append(IDs(docs), extraKeepIDs...)
	if err := c.docs.DeleteWhereIDNotIn(ctx, collection, keep); err != nil {
		return fmt.Errorf("sync %s: %w", collection, err)
	}
	c.Invalidate()
	return nil
}

// SyncEmployees replaces the roster.
func (c *Cache) SyncEmployees(ctx context.Context, employees []leave.Employee) error {
	docs, err := MarshalDocuments(employees, func(e leave.Employee) string { return string(e.ID) })
	if err != nil {
		return err
	}
	return c.syncCollection(ctx, ColEmployees, docs, nil)
}

// otherApplicationIDs lists the application documents of the opposite
// kind so a one-sided sync does not delete them.
func (c *Cache) otherApplicationIDs(ctx context.Context, recruitment bool) ([]string, error) {
	docs, err := c.docs.FindAll(ctx, ColApplications)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ColApplications, err)
	}
	var ids []string
	for _, doc := range docs {
		if isRecruitmentDoc(doc.Body) == recruitment {
			ids = append(ids, doc.ID)
		}
	}
	return ids, nil
}

// SyncLeaveApplications replaces the leave half of the applications
// collection, leaving recruitment applications untouched.
func (c *Cache) SyncLeaveApplications(ctx context.Context, apps []leave.Application) error {
	docs, err := MarshalDocuments(apps, func(a leave.Application) string { return string(a.ID) })
	if err != nil {
		return err
	}
	keep, err := c.otherApplicationIDs(ctx, true)
	if err != nil {
		return err
	}
	return c.syncCollection(ctx, ColApplications, docs, keep)
}

// SyncRecruitApplications replaces the recruitment half of the
// applications collection, leaving leave applications untouched.
func (c *Cache) SyncRecruitApplications(ctx context.Context, apps []recruit.Application) error {
	docs, err := MarshalDocuments(apps, func(a recruit.Application) string { return a.ID })
	if err != nil {
		return err
	}
	keep, err := c.otherApplicationIDs(ctx, false)
	if err != nil {
		return err
	}
	return c.syncCollection(ctx, ColApplications, docs, keep)
}

// SyncHolidays replaces the holiday calendar.
func (c *Cache) SyncHolidays(ctx context.Context, holidays []leave.Holiday) error {
	docs, err := MarshalDocuments(holidays, func(h leave.Holiday) string { return string(h.ID) })
	if err != nil {
		return err
	}
	return c.syncCollection(ctx, ColHolidays, docs, nil)
}

// SyncPositions replaces the positions collection.
func (c *Cache) SyncPositions(ctx context.Context, positions []recruit.Position) error {
	docs, err := MarshalDocuments(positions, func(p recruit.Position) string { return p.ID })
	if err != nil {
		return err
	}
	return c.syncCollection(ctx, ColPositions, docs, nil)
}

// SyncCandidates replaces the candidates collection.
func (c *Cache) SyncCandidates(ctx context.Context, candidates []recruit.Candidate) error {
	docs, err := MarshalDocuments(candidates, func(cd recruit.Candidate) string { return cd.ID })
	if err != nil {
		return err
	}
	return c.syncCollection(ctx, ColCandidates, docs, nil)
}

// SyncCourses replaces the learning courses collection.
func (c *Cache) SyncCourses(ctx context.Context, courses []learning.Course) error {
	docs, err := MarshalDocuments(courses, func(v learning.Course) string { return v.ID })
	if err != nil {
		return err
	}
	return c.syncCollection(ctx, ColLearningCourses, docs, nil)
}

// SyncModules replaces the learning modules collection.
func (c *Cache) SyncModules(ctx context.Context, modules []learning.Module) error {
	docs, err := MarshalDocuments(modules, func(v learning.Module) string { return v.ID })
	if err != nil {
		return err
	}
	return c.syncCollection(ctx, ColLearningModules, docs, nil)
}

// SyncLessons replaces the learning lessons collection.
func (c *Cache) SyncLessons(ctx context.Context, lessons []learning.Lesson) error {
	docs, err := MarshalDocuments(lessons, func(v learning.Lesson) string { return v.ID })
	if err != nil {
		return err
	}
	return c.syncCollection(ctx, ColLearningLessons, docs, nil)
}

// SyncAssets replaces the lesson assets collection.
func (c *Cache) SyncAssets(ctx context.Context, assets []learning.LessonAsset) error {
	docs, err := MarshalDocuments(assets, func(v learning.LessonAsset) string { return v.ID })
	if err != nil {
		return err
	}
	return c.syncCollection(ctx, ColLearningLessonAssets, docs, nil)
}

// UpsertAssignments adds or updates course assignments without touching
// the rest of the collection.
func (c *Cache) UpsertAssignments(ctx context.Context, assignments []learning.CourseAssignment) error {
	docs, err := MarshalDocuments(assignments, func(v learning.CourseAssignment) string { return v.ID })
	if err != nil {
		return err
	}
	if err := c.docs.UpsertMany(ctx, ColLearningAssignments, docs); err != nil {
		return fmt.Errorf("sync %s: %w", ColLearningAssignments, err)
	}
	c.Invalidate()
	return nil
}

// =============================================================================
// leave.DataSource
// =============================================================================

// LeaveData returns the roster view the accrual engine works from. The
// employees are cloned: the recalculator stamps balances onto them, and a
// run whose batch write fails must leave the cached snapshot untouched.
func (c *Cache) LeaveData(ctx context.Context) (leave.Data, error) {
	snap, err := c.Get(ctx)
	if err != nil {
		return leave.Data{}, err
	}
	employees := make([]leave.Employee, len(snap.Employees))
	for i, emp := range snap.Employees {
		employees[i] = emp.Clone()
	}
	return leave.Data{
		Employees:    employees,
		Applications: snap.LeaveApplications,
		Holidays:     snap.Holidays,
	}, nil
}
