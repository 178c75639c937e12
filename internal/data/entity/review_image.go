package entity

import (
	"github.com/google/uuid"
)

// ReviewImage is the attachment row bound 1:1 to a review. The review row
// carries the public URL; this row carries the disk-level handle.
type ReviewImage struct {
	BaseSimple
	ReviewID    uuid.UUID `db:"review_id"`
	ImgName     string    `db:"img_name"` // generated storage name
	ImgOrigName string    `db:"img_orig_name"`
	ImgPath     string    `db:"img_path"`
}
