package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/phpdave11/gofpdf"
)

const (
	photoColumnGap   = 6.0
	photoRowSpacing  = 6.0
	photoMaxHeight   = 90.0
	photoCaptionLine = 4.2
	photoCaptionGap  = 2.0
	photoCellMargin  = 4.0
	photoTitleLines  = 6
)

// photoCell is a measured caption plus optional image. The first
// titleLines caption lines are the numbered work description, the rest
// are the submission date.
type photoCell struct {
	caption    []string
	titleLines int
	photo      *Photo
	imgW       float64
	imgH       float64
}

// captionFont is the font of caption line i.
func (p photoCell) captionFont(i int) (string, float64) {
	if i < p.titleLines {
		return "B", 8
	}
	return "", 7
}

func (p photoCell) height() float64 {
	h := float64(len(p.caption)) * photoCaptionLine
	if p.photo != nil {
		h += photoCaptionGap + p.imgH
	}
	return h
}

// measurePhotoCell wraps the caption to the column and scales the image to
// the column width, capping its height at photoMaxHeight.
func (l *layout) measurePhotoCell(n int, s ApprovedSubmission, photo *Photo, colW float64) photoCell {
	l.setFont("B", 8)
	title := l.clampLines(l.wrap(fmt.Sprintf("%d. %s", n, s.WorkDescription), colW), colW, photoTitleLines)
	cell := photoCell{
		caption:    title,
		titleLines: len(title),
		photo:      photo,
	}
	if s.SubmittedAt != "" {
		l.setFont("", 7)
		cell.caption = append(cell.caption, l.wrap("Tanggal submit: "+s.SubmittedAt, colW)...)
	}
	if photo == nil || photo.AspectRatio() == 0 {
		cell.photo = nil
		return cell
	}

	w := colW
	h := w * photo.AspectRatio()
	if h > photoMaxHeight {
		h = photoMaxHeight
		w = h / photo.AspectRatio()
	}
	cell.imgW, cell.imgH = w, h
	return cell
}

// drawPhotoAppendix lays out the photos of submissions in a two-column
// grid on new pages. Photos that cannot be loaded or embedded leave their
// caption without an image. It returns how many photos were embedded and
// how many were missing.
func (c *Compositor) drawPhotoAppendix(ctx context.Context, l *layout, submissions []ApprovedSubmission, store StoreDescriptor) (embedded, missing int) {
	var withPhotos []ApprovedSubmission
	for _, s := range submissions {
		if s.HasPhoto() {
			withPhotos = append(withPhotos, s)
		}
	}
	if len(withPhotos) == 0 {
		return 0, 0
	}

	urls := make([]string, len(withPhotos))
	for i, s := range withPhotos {
		urls[i] = s.PhotoURL
	}
	photos := c.Photos.LoadAll(ctx, urls)

	l.newPage()
	l.band(BlockMasthead, colorAppendix,
		[]string{LabelAppendix, fmt.Sprintf("%s (%s)", store.StoreName, store.StoreCode)},
		[]float64{13, 9}, 0)

	colW := (l.contentWidth() - photoColumnGap) / 2
	col := 0
	rowY := l.y
	leftH := 0.0

	for i, s := range withPhotos {
		cell := l.measurePhotoCell(i+1, s, photos[i], colW)
		h := cell.height()

		if rowY+h+photoCellMargin > l.limit() {
			l.newPage()
			col, rowY, leftH = 0, l.y, 0
		}

		x := pageMarginX + float64(col)*(colW+photoColumnGap)
		if c.drawPhotoCell(l, fmt.Sprintf("foto-%d", i+1), x, rowY, colW, &cell) {
			embedded++
		} else {
			missing++
			h = cell.height()
		}
		l.record(BlockPhoto, rowY, h, cell.caption)

		if col == 0 {
			leftH, col = h, 1
			continue
		}
		rowY += max(leftH, h) + photoRowSpacing
		col, leftH = 0, 0
		l.y = rowY
	}
	if col == 1 {
		rowY += leftH + photoRowSpacing
	}
	l.y = rowY
	return embedded, missing
}

// drawPhotoCell draws the caption and, when possible, the bordered image.
// It reports whether the image was embedded; on failure cell.photo is
// cleared so the recorded height is the caption alone.
func (c *Compositor) drawPhotoCell(l *layout, name string, x, y, colW float64, cell *photoCell) bool {
	for i, line := range cell.caption {
		l.setFont(cell.captionFont(i))
		l.text(x, y+float64(i)*photoCaptionLine, colW, photoCaptionLine, line, "L")
	}
	if cell.photo == nil {
		return false
	}

	opts := gofpdf.ImageOptions{ImageType: "JPG"}
	l.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(cell.photo.Data))
	if !l.pdf.Ok() {
		c.logger().Warn("photo embed failed", "image", name, "error", l.pdf.Error())
		l.pdf.ClearError()
		cell.photo = nil
		return false
	}

	imgX := x + (colW-cell.imgW)/2
	imgY := y + float64(len(cell.caption))*photoCaptionLine + photoCaptionGap
	l.pdf.ImageOptions(name, imgX, imgY, cell.imgW, cell.imgH, false, opts, 0, "")
	l.setDraw(colorBorder)
	l.pdf.Rect(imgX, imgY, cell.imgW, cell.imgH, "D")
	return true
}
