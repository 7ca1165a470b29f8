package selections

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	rows map[string]Selection // keyed user:viewpoint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[string]Selection)}
}

func (r *fakeRepo) ListByUser(_ context.Context, userID string) ([]Selection, error) {
	var out []Selection
	for _, row := range r.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *fakeRepo) Upsert(_ context.Context, selection Selection) error {
	r.rows[selection.UserID+":"+selection.Viewpoint] = selection
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, userID, viewpoint string) error {
	delete(r.rows, userID+":"+viewpoint)
	return nil
}

func TestSetRejectsUnknownViewpoint(t *testing.T) {
	service := NewService(newFakeRepo())
	_, err := service.Set(context.Background(), "u1", "astrology", 2, "")
	assert.ErrorIs(t, err, ErrInvalidViewpoint)
}

func TestSetRejectsOutOfRangeStep(t *testing.T) {
	service := NewService(newFakeRepo())
	for _, step := range []int{0, 5, -1, 100} {
		_, err := service.Set(context.Background(), "u1", ViewpointFacilitation, step, "")
		assert.ErrorIs(t, err, ErrInvalidStep, "step %d", step)
	}
}

func TestSetTwiceOverwrites(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo)

	_, err := service.Set(context.Background(), "u1", ViewpointCurriculum, 1, "starting out")
	require.NoError(t, err)
	_, err = service.Set(context.Background(), "u1", ViewpointCurriculum, 3, "running workshops")
	require.NoError(t, err)

	rows, err := service.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 3, rows[0].Step)
	assert.Equal(t, "running workshops", rows[0].Memo)
}

func TestSetSanitizesMemo(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo)

	selection, err := service.Set(context.Background(), "u1", ViewpointTechnology, 2, `<script>x</script> built a class site`)
	require.NoError(t, err)
	assert.Equal(t, "built a class site", selection.Memo)
}

func TestDeleteIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo)

	_, err := service.Set(context.Background(), "u1", ViewpointCommunity, 2, "")
	require.NoError(t, err)

	require.NoError(t, service.Delete(context.Background(), "u1", ViewpointCommunity))
	require.NoError(t, service.Delete(context.Background(), "u1", ViewpointCommunity))

	rows, err := service.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDeleteRejectsUnknownViewpoint(t *testing.T) {
	service := NewService(newFakeRepo())
	err := service.Delete(context.Background(), "u1", "astrology")
	assert.ErrorIs(t, err, ErrInvalidViewpoint)
}

func TestViewpointsOrderIsFixed(t *testing.T) {
	want := []string{"facilitation", "curriculum", "assessment", "technology", "community"}
	assert.Equal(t, want, Viewpoints())
}

func TestStepLabels(t *testing.T) {
	labels := map[int]string{1: "Exploring", 2: "Practicing", 3: "Integrating", 4: "Leading"}
	for step, want := range labels {
		assert.Equal(t, want, StepLabel(step))
	}
	assert.Empty(t, StepLabel(5))
}
