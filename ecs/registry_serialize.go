package ecs

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DeserializeReport describes what DeserializeEntityComponents did with each entry.
type DeserializeReport struct {
	Applied []string
	Skipped []string
}

// SerializeEntityComponents writes every component present on e in sorted order:
//
//	u32    count
//	count x { string name; bytes payload }
//
// Each payload is length-prefixed so readers can skip types they don't know.
func (r *ComponentRegistry) SerializeEntityComponents(e Entity, ds *DataStream) error {
	present := make([]*ComponentMeta, 0, 8)
	for _, m := range r.metas() {
		if m.Has(e) {
			present = append(present, m)
		}
	}

	payloads := make([][]byte, len(present))
	for i, m := range present {
		sub := NewDataStream()
		if err := m.Serialize(e, sub); err != nil {
			return eris.Wrapf(err, "serialize component %s", m.Name)
		}
		payloads[i] = sub.Bytes()
	}

	ds.WriteU32(uint32(len(present)))
	for i, m := range present {
		ds.WriteString(m.Name)
		ds.WriteBytes(payloads[i])
	}
	return nil
}

// DeserializeEntityComponents reads a block written by SerializeEntityComponents into e,
// creating missing components. Unknown type names are logged and skipped.
func (r *ComponentRegistry) DeserializeEntityComponents(e Entity, ds *DataStream) (DeserializeReport, error) {
	var report DeserializeReport
	r.FinalizeRegistration()

	count := ds.ReadU32()
	if err := ds.Err(); err != nil {
		return report, eris.Wrap(err, "read component count")
	}

	for i := uint32(0); i < count; i++ {
		name := ds.ReadString()
		payload := ds.ReadBytes()
		if err := ds.Err(); err != nil {
			return report, eris.Wrapf(err, "read component entry %d", i)
		}

		m := r.GetMetaByName(name)
		if m == nil {
			r.log.Warn("skipping unknown component type",
				zap.String("type", name),
				zap.Int("bytes", len(payload)),
				zap.Stringer("entity", e.ID()))
			report.Skipped = append(report.Skipped, name)
			continue
		}

		if !m.Has(e) && !m.Create(e) {
			return report, eris.Wrapf(ErrEntityNotFound, "create %s on %s", name, e.ID())
		}
		if err := m.Deserialize(e, NewDataStreamFromBytes(payload)); err != nil {
			return report, eris.Wrapf(err, "deserialize component %s", name)
		}
		report.Applied = append(report.Applied, name)
	}
	return report, nil
}
