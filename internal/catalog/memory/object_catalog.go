package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pepperjack/objectstore/internal/catalog"
	"github.com/pepperjack/objectstore/internal/objstore"
)

// ObjectCatalog is an in-memory catalog.ObjectCatalog fake. It enforces the
// same lifecycle-transition whitelist as the production implementation so
// coordinator tests exercise real invariant checks, not a rubber stamp.
type ObjectCatalog struct {
	mu      sync.Mutex
	objects map[string]objstore.Object
}

// NewObjectCatalog creates an empty in-memory object catalog.
func NewObjectCatalog() *ObjectCatalog {
	return &ObjectCatalog{objects: map[string]objstore.Object{}}
}

func (c *ObjectCatalog) Save(ctx context.Context, obj *objstore.Object) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, exists := c.objects[obj.ID]
	now := time.Now()

	if obj.Status == objstore.StatusWriting {
		if exists {
			return fmt.Errorf("%w: id already reserved", objstore.ErrInvalidTransition)
		}
		obj.CreatedAt = now
		obj.UpdatedAt = now
		c.objects[obj.ID] = *obj
		return nil
	}

	if !exists || !objstore.CanTransition(existing.Status, obj.Status) {
		return fmt.Errorf("%w", objstore.ErrInvalidTransition)
	}

	if obj.Status == objstore.StatusCommitted && obj.Key != "" {
		for id, other := range c.objects {
			if id == obj.ID {
				continue
			}
			if other.Status == objstore.StatusCommitted &&
				other.Namespace == obj.Namespace && other.TenantID == obj.TenantID && other.Key == obj.Key {
				return fmt.Errorf("%w", objstore.ErrConflict)
			}
		}
	}

	obj.CreatedAt = existing.CreatedAt
	obj.UpdatedAt = now
	c.objects[obj.ID] = *obj
	return nil
}

func (c *ObjectCatalog) FindByID(ctx context.Context, id string) (objstore.Object, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, ok := c.objects[id]
	if !ok || o.Status != objstore.StatusCommitted {
		return objstore.Object{}, objstore.ErrNotFound
	}
	return o, nil
}

func (c *ObjectCatalog) FindByKey(ctx context.Context, namespace, tenant, key string) (objstore.Object, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, o := range c.objects {
		if o.Status == objstore.StatusCommitted && o.Namespace == namespace && o.TenantID == tenant && o.Key == key {
			return o, nil
		}
	}
	return objstore.Object{}, objstore.ErrNotFound
}

func (c *ObjectCatalog) List(ctx context.Context, namespace, tenant string, limit, offset int) ([]objstore.Object, error) {
	limit, offset = catalog.ClampLimit(limit, offset)
	c.mu.Lock()
	all := c.committedFor(namespace, tenant)
	c.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return paginate(all, limit, offset), nil
}

func (c *ObjectCatalog) committedFor(namespace, tenant string) []objstore.Object {
	var out []objstore.Object
	for _, o := range c.objects {
		if o.Status == objstore.StatusCommitted && o.Namespace == namespace && o.TenantID == tenant {
			out = append(out, o)
		}
	}
	return out
}

func paginate(objs []objstore.Object, limit, offset int) []objstore.Object {
	if offset >= len(objs) {
		return nil
	}
	end := offset + limit
	if end > len(objs) {
		end = len(objs)
	}
	return objs[offset:end]
}

func (c *ObjectCatalog) Search(ctx context.Context, req catalog.SearchRequest) ([]objstore.Object, error) {
	limit, offset := catalog.ClampLimit(req.Limit, req.Offset)
	c.mu.Lock()
	all := c.committedFor(req.Namespace, req.TenantID)
	c.mu.Unlock()

	var filtered []objstore.Object
	for _, o := range all {
		if req.KeySubstring != "" && !strings.Contains(o.Key, req.KeySubstring) {
			continue
		}
		if req.ContentType != "" && o.ContentType != req.ContentType {
			continue
		}
		if req.StorageClass != "" && o.StorageClass != req.StorageClass {
			continue
		}
		if req.MinSizeBytes != nil && o.SizeBytes < *req.MinSizeBytes {
			continue
		}
		if req.MaxSizeBytes != nil && o.SizeBytes > *req.MaxSizeBytes {
			continue
		}
		if req.CreatedAfter != nil && o.CreatedAt.Before(*req.CreatedAfter) {
			continue
		}
		if req.CreatedBefore != nil && o.CreatedAt.After(*req.CreatedBefore) {
			continue
		}
		if req.UpdatedAfter != nil && o.UpdatedAt.Before(*req.UpdatedAfter) {
			continue
		}
		if req.UpdatedBefore != nil && o.UpdatedAt.After(*req.UpdatedBefore) {
			continue
		}
		if len(req.MetadataEquals) > 0 {
			match := true
			for k, v := range req.MetadataEquals {
				if o.Metadata.Tags[k] != v {
					match = false
					break
				}
			}
			if !match {
				continue
			}
		}
		filtered = append(filtered, o)
	}

	sortObjects(filtered, req.SortBy, req.SortDirection)
	return paginate(filtered, limit, offset), nil
}

func sortObjects(objs []objstore.Object, field catalog.SortField, dir catalog.SortDirection) {
	ascending := func(i, j int) bool {
		switch field {
		case catalog.SortUpdatedAt:
			return objs[i].UpdatedAt.Before(objs[j].UpdatedAt)
		case catalog.SortSizeBytes:
			return objs[i].SizeBytes < objs[j].SizeBytes
		case catalog.SortKey:
			return objs[i].Key < objs[j].Key
		default:
			return objs[i].CreatedAt.Before(objs[j].CreatedAt)
		}
	}
	sort.SliceStable(objs, func(i, j int) bool {
		if dir == catalog.SortAsc {
			return ascending(i, j)
		}
		return ascending(j, i)
	})
}

func (c *ObjectCatalog) TextSearch(ctx context.Context, req catalog.TextSearchRequest) ([]objstore.Object, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: text search query must not be empty", objstore.ErrInvalidRequest)
	}
	if !req.MatchKey && !req.MatchMetadata {
		return nil, fmt.Errorf("%w: at least one of match_key/match_metadata must be set", objstore.ErrInvalidRequest)
	}
	limit, offset := catalog.ClampLimit(req.Limit, req.Offset)

	c.mu.Lock()
	all := c.committedFor(req.Namespace, req.TenantID)
	c.mu.Unlock()

	var out []objstore.Object
	for _, o := range all {
		if req.MatchKey && strings.Contains(o.Key, req.Query) {
			out = append(out, o)
			continue
		}
		if req.MatchMetadata && strings.Contains(metadataText(o.Metadata), req.Query) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, limit, offset), nil
}

func metadataText(m objstore.Metadata) string {
	var b strings.Builder
	b.WriteString(m.Kind)
	b.WriteString(m.Summary)
	b.WriteString(m.Origin)
	for k, v := range m.Tags {
		b.WriteString(k)
		b.WriteString(v)
	}
	return b.String()
}

func (c *ObjectCatalog) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.objects, id)
	return nil
}

func (c *ObjectCatalog) CleanupStuckUploads(ctx context.Context, ageHours float64) (int, error) {
	cutoff := time.Now().Add(-time.Duration(ageHours * float64(time.Hour)))
	c.mu.Lock()
	defer c.mu.Unlock()
	var count int
	for id, o := range c.objects {
		if o.Status == objstore.StatusWriting && o.CreatedAt.Before(cutoff) {
			o.Status = objstore.StatusDeleted
			o.UpdatedAt = time.Now()
			c.objects[id] = o
			count++
		}
	}
	return count, nil
}

// Put is a test helper for seeding rows directly (e.g. a stuck WRITING row
// with a backdated CreatedAt), bypassing Save's transition checks.
func (c *ObjectCatalog) Put(obj objstore.Object) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects[obj.ID] = obj
}
