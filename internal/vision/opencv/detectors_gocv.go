//go:build gocv

package opencv

import (
	"image"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/agingrasc/design3-vision/internal/detect"
	"github.com/agingrasc/design3-vision/internal/vision"
	"github.com/agingrasc/design3-vision/internal/world"
)

// TableDetector finds the table as the largest four-sided contour of an
// adaptive threshold.
type TableDetector struct {
	MinArea float64
}

// NewTableDetector returns a table detector.
func NewTableDetector() (*TableDetector, error) {
	return &TableDetector{MinArea: MinTableArea}, nil
}

// Name implements detect.Named.
func (d *TableDetector) Name() string { return "table" }

// Detect implements detect.Detector.
func (d *TableDetector) Detect(img image.Image) (world.Element, error) {
	gray, err := grayMat(img)
	if err != nil {
		return nil, &detect.NotFoundError{Detector: d.Name(), Reason: "bad image", Err: err}
	}
	defer gray.Close()

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.AdaptiveThreshold(gray, &mask, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinary, 11, 2)

	rect, ok := vision.LargestQuad(polygons(mask, gocv.RetrievalList, 0.02), d.MinArea)
	if !ok {
		return nil, detect.NotFound(d.Name(), "no rectangle above %.0f px²", d.MinArea)
	}
	return &world.Table{Rectangle: rect}, nil
}

// RobotDetector finds the three fuchsia markers on top of the robot.
type RobotDetector struct{}

// NewRobotDetector returns a robot detector.
func NewRobotDetector() (*RobotDetector, error) {
	return &RobotDetector{}, nil
}

// Name implements detect.Named.
func (d *RobotDetector) Name() string { return "robot" }

// Detect implements detect.Detector. Hough circles are tried first; when
// markers are missing the centres of mass of the mask blobs fill the gaps.
func (d *RobotDetector) Detect(img image.Image) (world.Element, error) {
	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, &detect.NotFoundError{Detector: d.Name(), Reason: "bad image", Err: err}
	}
	defer src.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.MedianBlur(src, &blurred, 5)

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(blurred, &hsv, gocv.ColorRGBToHSV)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.InRangeWithScalar(hsv, gocv.NewScalar(120, 100, 100, 0), gocv.NewScalar(176, 255, 255, 0), &mask)
	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(3, 3))
	defer kernel.Close()
	gocv.MorphologyEx(mask, &mask, gocv.MorphClose, kernel)

	markers := circles(mask, 1.7, robotMarkerMinDistance, 50, 30, robotMarkerMinRadius, robotMarkerMaxRadius)
	if len(markers) < vision.RobotMarkerCount {
		markers = mergeMarkers(markers, blobCenters(mask))
	}
	robot, err := vision.RobotFromMarkers(markers)
	if err != nil {
		return nil, &detect.NotFoundError{Detector: d.Name(), Reason: "markers", Err: err}
	}
	return robot, nil
}

// mergeMarkers adds blob centres that are neither duplicates of a circle
// (closer than 10 px) nor too far from the robot (over 125 px).
func mergeMarkers(found, blobs []r2.Vec) []r2.Vec {
	out := append([]r2.Vec(nil), found...)
	for _, b := range blobs {
		keep := true
		for _, m := range out {
			d := r2.Norm(r2.Sub(b, m))
			if d < 10 || d > 125 {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, b)
		}
	}
	return out
}

// ObstacleDetector finds the obstacle tops as Hough circles and classifies
// the marker drawn on each.
type ObstacleDetector struct{}

// NewObstacleDetector returns an obstacle detector.
func NewObstacleDetector() (*ObstacleDetector, error) {
	return &ObstacleDetector{}, nil
}

// Name implements detect.Named.
func (d *ObstacleDetector) Name() string { return "obstacles" }

// Detect implements detect.Detector.
func (d *ObstacleDetector) Detect(img image.Image) (world.Element, error) {
	gray, err := grayMat(img)
	if err != nil {
		return nil, &detect.NotFoundError{Detector: d.Name(), Reason: "bad image", Err: err}
	}
	defer gray.Close()

	found := gocv.NewMat()
	defer found.Close()
	gocv.HoughCirclesWithParams(gray, &found, gocv.HoughGradient, 1, obstacleMinDistance, 50, 60, obstacleMinRadius, obstacleMaxRadius)
	if found.Empty() || found.Cols() == 0 {
		return nil, detect.NotFound(d.Name(), "no circles")
	}

	var obstacles world.Obstacles
	for i := 0; i < found.Cols(); i++ {
		v := found.GetVecfAt(0, i)
		center := image.Pt(int(v[0]), int(v[1]))
		radius := int(v[2])
		o := world.Obstacle{
			ImagePosition: r2.Vec{X: float64(v[0]), Y: float64(v[1])},
			Radius:        float64(v[2]),
		}
		roi := image.Rect(center.X-radius, center.Y-radius, center.X+radius, center.Y+radius).Intersect(image.Rect(0, 0, gray.Cols(), gray.Rows()))
		if !roi.Empty() {
			region := gray.Region(roi)
			classifyMarker(region, roi.Min, &o)
			region.Close()
		}
		obstacles = append(obstacles, o)
	}
	return obstacles, nil
}

// classifyMarker looks for a triangle, then a circle, inside the obstacle
// top and records its shape and contour.
func classifyMarker(region gocv.Mat, offset image.Point, o *world.Obstacle) {
	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(region, &edges, 150, 150)
	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(3, 3))
	defer kernel.Close()
	gocv.Dilate(edges, &edges, kernel)

	contours := gocv.FindContours(edges, gocv.RetrievalList, gocv.ChainApproxSimple)
	defer contours.Close()

	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		approx := gocv.ApproxPolyDP(c, 0.1*gocv.ArcLength(c, true), true)
		area := gocv.ContourArea(approx)
		if approx.Size() == 3 && area > 400 && area < 800 {
			pts := toVecs(approx.ToPoints(), offset)
			approx.Close()
			o.Shape = world.ShapeTriangle
			o.Contour = pts
			if orientation, err := vision.TriangleOrientation([3]r2.Vec{pts[0], pts[1], pts[2]}); err == nil {
				o.Orientation = orientation
			}
			return
		}
		approx.Close()
	}
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		approx := gocv.ApproxPolyDP(c, 0.01*gocv.ArcLength(c, true), true)
		area := gocv.ContourArea(c)
		if approx.Size() > 3 && area > 500 && area < 980 {
			o.Shape = world.ShapeCircle
			o.Contour = toVecs(approx.ToPoints(), offset)
			approx.Close()
			return
		}
		approx.Close()
	}
}

func polygons(mask gocv.Mat, mode gocv.RetrievalMode, epsilon float64) [][]r2.Vec {
	contours := gocv.FindContours(mask, mode, gocv.ChainApproxSimple)
	defer contours.Close()
	out := make([][]r2.Vec, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		approx := gocv.ApproxPolyDP(c, epsilon*gocv.ArcLength(c, true), true)
		out = append(out, toVecs(approx.ToPoints(), image.Point{}))
		approx.Close()
	}
	return out
}

func circles(mask gocv.Mat, dp, minDist, p1, p2 float64, minR, maxR int) []r2.Vec {
	found := gocv.NewMat()
	defer found.Close()
	gocv.HoughCirclesWithParams(mask, &found, gocv.HoughGradient, dp, minDist, p1, p2, minR, maxR)
	out := make([]r2.Vec, 0, found.Cols())
	for i := 0; i < found.Cols(); i++ {
		v := found.GetVecfAt(0, i)
		out = append(out, r2.Vec{X: float64(v[0]), Y: float64(v[1])})
	}
	return out
}

func blobCenters(mask gocv.Mat) []r2.Vec {
	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()
	var out []r2.Vec
	for i := 0; i < contours.Size(); i++ {
		pts := contours.At(i).ToPoints()
		if len(pts) == 0 {
			continue
		}
		var c r2.Vec
		for _, p := range pts {
			c = r2.Add(c, r2.Vec{X: float64(p.X), Y: float64(p.Y)})
		}
		out = append(out, r2.Scale(1/float64(len(pts)), c))
	}
	return out
}

func toVecs(pts []image.Point, offset image.Point) []r2.Vec {
	out := make([]r2.Vec, len(pts))
	for i, p := range pts {
		out[i] = r2.Vec{X: float64(p.X + offset.X), Y: float64(p.Y + offset.Y)}
	}
	return out
}
