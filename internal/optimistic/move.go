package optimistic

import "github.com/google/uuid"

// Move computes the id sequence resulting from dragging one sibling onto
// another: the dragged id is removed and re-inserted at the position the
// target occupied before the move, and the whole sequence is returned for
// wholesale resubmission. Because ranks are then recomputed as list indices,
// gaps and duplicates cannot arise from any gesture.
//
// A gesture whose dragged or target id is not in the sequence, or where the
// two coincide, yields the input order unchanged.
func Move(ids []uuid.UUID, draggedID, targetID uuid.UUID) []uuid.UUID {
	if draggedID == targetID {
		return append([]uuid.UUID(nil), ids...)
	}

	targetIndex := -1
	for i, id := range ids {
		if id == targetID {
			targetIndex = i
			break
		}
	}

	draggedIndex := -1
	for i, id := range ids {
		if id == draggedID {
			draggedIndex = i
			break
		}
	}

	if draggedIndex < 0 || targetIndex < 0 {
		return append([]uuid.UUID(nil), ids...)
	}

	moved := make([]uuid.UUID, 0, len(ids))
	for i, id := range ids {
		if i != draggedIndex {
			moved = append(moved, id)
		}
	}

	if targetIndex > len(moved) {
		targetIndex = len(moved)
	}
	moved = append(moved[:targetIndex], append([]uuid.UUID{draggedID}, moved[targetIndex:]...)...)

	return moved
}
