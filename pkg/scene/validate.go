package scene

import (
	"fmt"

	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/validation"
)

// ValidateGraph performs structural validation on a scene graph output.
// It checks entity integrity, group index consistency, and bounds enclosure.
func ValidateGraph(g *Graph) *validation.Report {
	r := validation.NewReport()

	if g == nil {
		r.AddError(validation.Result{
			Level:   validation.LevelScene,
			Message: "scene graph is nil",
		})
		return r
	}

	validateEntityIDs(g, r)
	validateGroupIndices(g, r)
	validateGroupMembership(g, r)
	validateChildren(g, r)
	validateBoundsEnclosure(g, r)
	validateEntityDimensions(g, r)

	return r
}

func validateEntityIDs(g *Graph, r *validation.Report) {
	seen := make(map[string]int, len(g.Entities))

	for i, e := range g.Entities {
		if e.ID == "" {
			r.AddError(validation.Result{
				Level:       validation.LevelScene,
				Message:     fmt.Sprintf("entity at index %d has empty ID", i),
				Path:        fmt.Sprintf("entities[%d].id", i),
				ActualValue: "",
				Expected:    "non-empty string",
			})
			continue
		}
		if prev, exists := seen[e.ID]; exists {
			r.AddError(validation.Result{
				Level:       validation.LevelScene,
				Message:     fmt.Sprintf("duplicate entity ID %q at indices %d and %d", e.ID, prev, i),
				Path:        fmt.Sprintf("entities[%d].id", i),
				ActualValue: e.ID,
			})
		}
		seen[e.ID] = i
	}
}

func entityIndex(g *Graph) map[string]Entity {
	ids := make(map[string]Entity, len(g.Entities))
	for _, e := range g.Entities {
		ids[e.ID] = e
	}
	return ids
}

func validateGroupIndices(g *Graph, r *validation.Report) {
	entities := entityIndex(g)

	checkGroup := func(groupType, groupName string, ids []string) {
		for _, id := range ids {
			if _, ok := entities[id]; !ok {
				r.AddError(validation.Result{
					Level:       validation.LevelScene,
					Message:     fmt.Sprintf("group %s.%s references non-existent entity %q", groupType, groupName, id),
					Path:        fmt.Sprintf("groups.%s.%s", groupType, groupName),
					ActualValue: id,
					Expected:    "existing entity ID",
				})
			}
		}
	}

	for name, ids := range g.Groups.Diameters {
		checkGroup("diameters", name, ids)
	}
	for name, ids := range g.Groups.Levels {
		checkGroup("levels", name, ids)
	}
	for name, ids := range g.Groups.EntityTypes {
		checkGroup("entity_types", string(name), ids)
	}
	checkGroup("deficient", "", g.Groups.Deficient)

	for _, id := range g.Groups.Deficient {
		if e, ok := entities[id]; ok && e.Type != EntityOutlet {
			r.AddError(validation.Result{
				Level:       validation.LevelScene,
				Message:     fmt.Sprintf("deficient group lists %s %q", e.Type, id),
				Path:        "groups.deficient",
				ActualValue: id,
				Expected:    "outlet entity",
			})
		}
	}
}

func members[K ~string](groups map[K][]string) map[string]map[string]bool {
	out := make(map[string]map[string]bool, len(groups))
	for name, ids := range groups {
		m := make(map[string]bool, len(ids))
		for _, id := range ids {
			m[id] = true
		}
		out[string(name)] = m
	}
	return out
}

func validateGroupMembership(g *Graph, r *validation.Report) {
	byDiameter := members(g.Groups.Diameters)
	byLevel := members(g.Groups.Levels)
	byType := members(g.Groups.EntityTypes)

	check := func(e Entity, group string, index map[string]map[string]bool, key string) {
		m, ok := index[key]
		if !ok {
			r.AddError(validation.Result{
				Level:       validation.LevelScene,
				Message:     fmt.Sprintf("entity %q has %s %q but no such group exists", e.ID, group, key),
				Path:        "groups." + group,
				ActualValue: key,
			})
			return
		}
		if !m[e.ID] {
			r.AddError(validation.Result{
				Level:       validation.LevelScene,
				Message:     fmt.Sprintf("entity %q has %s %q but is not in that group", e.ID, group, key),
				Path:        fmt.Sprintf("groups.%s.%s", group, key),
				ActualValue: e.ID,
			})
		}
	}

	for _, e := range g.Entities {
		if e.ID == "" {
			continue
		}
		check(e, "entity_types", byType, string(e.Type))
		check(e, "levels", byLevel, e.Level)
		if e.Type == EntityPipe {
			check(e, "diameters", byDiameter, e.Diameter)
		}
	}
}

func validateChildren(g *Graph, r *validation.Report) {
	entities := entityIndex(g)
	for _, e := range g.Entities {
		for _, c := range e.Children {
			if child, ok := entities[c]; !ok || child.Type != EntityPipe {
				r.AddError(validation.Result{
					Level:       validation.LevelScene,
					Message:     fmt.Sprintf("entity %q lists child %q which is not a pipe", e.ID, c),
					Path:        fmt.Sprintf("entities.%s.children", e.ID),
					ActualValue: c,
				})
			}
		}
	}
}

func validateBoundsEnclosure(g *Graph, r *validation.Report) {
	bounds := g.Metadata.Bounds
	tolerance := 0.01

	outside := func(v, lo, hi float64) bool {
		return v < lo-tolerance || v > hi+tolerance
	}
	for _, e := range g.Entities {
		p := e.Position
		if outside(p.X, bounds.Min.X, bounds.Max.X) || outside(p.Y, bounds.Min.Y, bounds.Max.Y) || outside(p.Z, bounds.Min.Z, bounds.Max.Z) {
			r.AddWarning(validation.Result{
				Level:       validation.LevelScene,
				Message:     fmt.Sprintf("entity %q at (%.2f, %.2f, %.2f) lies outside the scene bounds", e.ID, p.X, p.Y, p.Z),
				Path:        "metadata.bounds",
				ActualValue: p,
			})
			break
		}
	}
}

func validateEntityDimensions(g *Graph, r *validation.Report) {
	for _, e := range g.Entities {
		if e.Dimensions.X <= 0 || e.Dimensions.Y <= 0 || e.Dimensions.Z <= 0 {
			r.AddWarning(validation.Result{
				Level:       validation.LevelScene,
				Message:     fmt.Sprintf("entity %q has zero or negative dimension (%.3f, %.3f, %.3f)", e.ID, e.Dimensions.X, e.Dimensions.Y, e.Dimensions.Z),
				Path:        fmt.Sprintf("entities.%s.dimensions", e.ID),
				ActualValue: fmt.Sprintf("%.3f x %.3f x %.3f", e.Dimensions.X, e.Dimensions.Y, e.Dimensions.Z),
				Expected:    "all dimensions > 0",
			})
		}
	}
}
