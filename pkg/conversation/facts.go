package conversation

import "paintcode/pkg/domain"

// MergeFacts folds newly extracted facts into the accumulated set. Knowledge
// only grows: a zero field in src never clears what a previous turn
// established, while a non-zero field overwrites (the user correcting
// themselves must win over history).
func MergeFacts(dst, src domain.Facts) domain.Facts {
	if src.Brand != "" {
		dst.Brand = src.Brand
	}
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.Year != 0 {
		dst.Year = src.Year
	}
	if src.PaintCode != "" {
		dst.PaintCode = src.PaintCode
	}
	if src.ColorName != "" {
		dst.ColorName = src.ColorName
	}
	if src.HexColor != "" {
		dst.HexColor = src.HexColor
	}
	if src.ColorVerified {
		dst.ColorVerified = true
	}
	if src.ImageType != "" {
		dst.ImageType = src.ImageType
	}
	if src.RepairProblem != "" {
		dst.RepairProblem = src.RepairProblem
	}
	if src.RepairType != "" {
		dst.RepairType = src.RepairType
	}
	if src.RecommendedProduct != "" {
		dst.RecommendedProduct = src.RecommendedProduct
	}
	return dst
}
