package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"medremind/internal/domain/entity"
	appErrors "medremind/internal/pkg/errors"
)

// MedicationRepository reads the catalog-owned medication collection and
// performs the one narrow mutation this service is allowed: adherence state
// on acknowledge. Same single-writer envelope discipline as the reminder
// collection.
type MedicationRepository struct {
	kv  KVStore
	log *zap.Logger
	mu  sync.Mutex
}

func NewMedicationRepository(kv KVStore, log *zap.Logger) *MedicationRepository {
	return &MedicationRepository{kv: kv, log: log}
}

func (r *MedicationRepository) FindByID(ctx context.Context, id string) (*entity.Medication, error) {
	medications, _, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, med := range medications {
		if med.ID == id {
			return med, nil
		}
	}
	return nil, fmt.Errorf("%w: id=%s", appErrors.ErrMedicationNotFound, id)
}

// UpdateByID applies mutate to the stored record and writes the collection
// back in one serialized step. Unknown ids leave the collection untouched.
func (r *MedicationRepository) UpdateByID(ctx context.Context, id string, mutate func(*entity.Medication) error) (*entity.Medication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	medications, revision, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	var target *entity.Medication
	for _, med := range medications {
		if med.ID == id {
			target = med
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%w: id=%s", appErrors.ErrMedicationNotFound, id)
	}

	if err := mutate(target); err != nil {
		return nil, err
	}
	if err := r.persist(ctx, medications, revision+1); err != nil {
		return nil, err
	}
	return target, nil
}

func (r *MedicationRepository) load(ctx context.Context) ([]*entity.Medication, int64, error) {
	raw, err := r.kv.Get(ctx, KeyMedications)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read %s: %v", appErrors.ErrStoreOperation, KeyMedications, err)
	}

	env, err := decodeEnvelope(raw)
	if err != nil {
		return nil, 0, err
	}

	medications := make([]*entity.Medication, 0, len(env.Items))
	seen := make(map[string]bool, len(env.Items))
	var rejected []json.RawMessage
	for _, item := range env.Items {
		var med entity.Medication
		if err := json.Unmarshal(item, &med); err != nil {
			r.log.Warn("undecodable medication record", zap.Error(err))
			rejected = append(rejected, item)
			continue
		}
		if med.Validate() != nil {
			r.log.Warn("invalid medication record", zap.String("id", med.ID))
			rejected = append(rejected, item)
			continue
		}
		if seen[med.ID] {
			r.log.Warn("duplicate medication id dropped", zap.String("id", med.ID))
			continue
		}
		seen[med.ID] = true
		medications = append(medications, &med)
	}
	quarantine(ctx, r.kv, r.log, KeyMedications, rejected)

	return medications, env.Revision, nil
}

func (r *MedicationRepository) persist(ctx context.Context, medications []*entity.Medication, revision int64) error {
	items := make([]json.RawMessage, 0, len(medications))
	for _, med := range medications {
		b, err := json.Marshal(med)
		if err != nil {
			return fmt.Errorf("%w: encode medication %s: %v", appErrors.ErrStoreOperation, med.ID, err)
		}
		items = append(items, b)
	}

	doc, err := encodeEnvelope(revision, items)
	if err != nil {
		return err
	}
	if err := r.kv.Set(ctx, KeyMedications, doc); err != nil {
		return fmt.Errorf("%w: write %s: %v", appErrors.ErrStoreOperation, KeyMedications, err)
	}
	return nil
}
