package ecs

import (
	"io"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	// SceneMagic is "SCNE" read as a little-endian u32.
	SceneMagic   uint32 = 0x454E4353
	SceneVersion uint32 = 1

	// minEntityBytes is the smallest encoded entity: file index, empty name,
	// enabled flag and an empty component block.
	minEntityBytes = 4 + 4 + 1 + 4
)

// LoadReport summarizes a Scene.Load.
type LoadReport struct {
	Entities        []EntityId
	SkippedTypes    []string
	Reparented      int
	OrphanedParents int
}

type savedEntity struct {
	id      EntityId
	name    string
	enabled bool
}

// Save writes every live entity (transient ones only if includeTransient) to w.
//
//	u32 magic, u32 version, u32 count
//	count x { u32 file index; string name; bool enabled; component block }
//	u32 main camera file index
//
// File indices are slot indices. Child lists are not written; Load rebuilds them
// from each transform's parent index.
func (s *Scene) Save(w io.Writer, includeTransient bool) error {
	var entities []savedEntity
	var mainCamera EntityId
	s.Read(func(tx ReadTx) {
		for i := range tx.s.slots {
			slot := &tx.s.slots[i]
			if !slot.alive || slot.dying || (slot.transient && !includeTransient) {
				continue
			}
			entities = append(entities, savedEntity{
				id:      NewEntityId(uint32(i), slot.generation),
				name:    slot.name,
				enabled: slot.enabled,
			})
		}
		if tx.EntityExists(tx.s.mainCamera) {
			mainCamera = tx.s.mainCamera
		}
	})

	ds := NewDataStream()
	ds.WriteU32(SceneMagic)
	ds.WriteU32(SceneVersion)
	ds.WriteU32(uint32(len(entities)))

	cameraIndex := InvalidIndex
	for _, se := range entities {
		ds.WriteU32(se.id.Index())
		ds.WriteString(se.name)
		ds.WriteBool(se.enabled)
		if err := s.registry.SerializeEntityComponents(NewEntity(s, se.id), ds); err != nil {
			return eris.Wrapf(err, "save entity %q", se.name)
		}
		if se.id == mainCamera {
			cameraIndex = se.id.Index()
		}
	}
	ds.WriteU32(cameraIndex)

	if _, err := ds.WriteTo(w); err != nil {
		return eris.Wrap(err, "save scene")
	}
	return nil
}

// Load reads a file written by Save and adds its entities to the scene. All entities
// are created first; the hierarchy is rebuilt afterwards with SetParent so that every
// link goes through the usual validation. On error every entity created by this call
// is destroyed again and the scene is left as it was.
func (s *Scene) Load(r io.Reader) (report LoadReport, err error) {
	defer func() {
		if err == nil {
			return
		}
		for _, id := range report.Entities {
			s.DestroyEntity(id)
		}
		report.Entities = nil
	}()

	ds, err := ReadDataStream(r)
	if err != nil {
		return report, err
	}
	if magic := ds.ReadU32(); magic != SceneMagic {
		if ds.Err() != nil {
			return report, eris.Wrap(ds.Err(), "read scene header")
		}
		return report, eris.Wrapf(ErrBadSceneMagic, "got %#x", magic)
	}
	if version := ds.ReadU32(); version != SceneVersion {
		return report, eris.Wrapf(ErrUnsupportedSceneVersion, "got %d", version)
	}
	count := ds.ReadU32()
	if err := ds.Err(); err != nil {
		return report, eris.Wrap(err, "read scene header")
	}
	if need := uint64(count)*minEntityBytes + 4; need > uint64(ds.Remaining()) {
		return report, eris.Wrapf(ErrShortRead, "%d entities need at least %d bytes, have %d", count, need, ds.Remaining())
	}

	byFileIndex := make(map[uint32]EntityId)
	for i := uint32(0); i < count; i++ {
		fileIndex := ds.ReadU32()
		name := ds.ReadString()
		enabled := ds.ReadBool()
		if err := ds.Err(); err != nil {
			return report, eris.Wrapf(err, "read entity %d", i)
		}

		var e Entity
		s.Write(func(tx Tx) {
			e = NewEntity(s, tx.createEntity(name))
			if slot := tx.slot(e.id); slot != nil {
				slot.enabled = enabled
			}
		})
		byFileIndex[fileIndex] = e.id
		report.Entities = append(report.Entities, e.id)

		dr, err := s.registry.DeserializeEntityComponents(e, ds)
		report.SkippedTypes = append(report.SkippedTypes, dr.Skipped...)
		if err != nil {
			return report, eris.Wrapf(err, "load entity %q", name)
		}
	}
	cameraIndex := ds.ReadU32()
	if err := ds.Err(); err != nil {
		return report, eris.Wrap(err, "read main camera")
	}

	s.Write(func(tx Tx) {
		for _, id := range report.Entities {
			t := tx.transform(id)
			if t == nil || t.pendingParent == InvalidIndex {
				continue
			}
			fileParent := t.pendingParent
			t.pendingParent = InvalidIndex
			parent, ok := byFileIndex[fileParent]
			if !ok {
				tx.s.log.Warn("parent missing from scene file, loading as root",
					zap.Stringer("entity", id),
					zap.Uint32("parent_index", fileParent))
				report.OrphanedParents++
				continue
			}
			if tx.SetParent(id, parent) == HierarchyOk {
				report.Reparented++
			}
		}
		if camera, ok := byFileIndex[cameraIndex]; ok && cameraIndex != InvalidIndex {
			tx.s.mainCamera = camera
		}
	})
	return report, nil
}
