package camera

import "errors"

var (
	// ErrDegenerateProjection is returned when the camera geometry cannot map
	// a point: the point lies on or behind the camera plane, or the viewing
	// ray is parallel to the requested target plane.
	ErrDegenerateProjection = errors.New("degenerate projection")

	// ErrCalibrationTargetNotFound is returned when an image does not show a
	// complete calibration chessboard. The image is skipped and the session
	// is left unchanged.
	ErrCalibrationTargetNotFound = errors.New("calibration target not found")

	// ErrNoCorrespondencesCollected is returned by Finalize when no image was
	// accepted during the session.
	ErrNoCorrespondencesCollected = errors.New("no correspondences collected")

	// ErrCalibrationFinalized is returned when a finalized session is used again.
	ErrCalibrationFinalized = errors.New("calibration already finalized")

	// ErrImageSizeMismatch is returned when an image differs in size from the
	// images already accepted in the session.
	ErrImageSizeMismatch = errors.New("image size differs from session")

	// ErrInvalidModel is returned when model parameters have the wrong shape.
	ErrInvalidModel = errors.New("invalid camera model")

	// ErrModelNotFound is returned when a repository has no model for an id.
	ErrModelNotFound = errors.New("camera model not found")
)
