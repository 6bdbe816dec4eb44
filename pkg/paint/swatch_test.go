package paint

import (
	"testing"

	"paintcode/pkg/domain"
)

func TestDeriveSwatch(t *testing.T) {
	base := domain.RGB{R: 100, G: 100, B: 100}

	metallic := DeriveSwatch(base, domain.FinishMetallic)
	if metallic.Highlight != (domain.RGB{R: 125, G: 125, B: 125}) {
		t.Errorf("metallic highlight = %+v", metallic.Highlight)
	}
	if metallic.Shadow != (domain.RGB{R: 70, G: 70, B: 70}) {
		t.Errorf("metallic shadow = %+v", metallic.Shadow)
	}

	solid := DeriveSwatch(base, domain.FinishSolid)
	if solid.Highlight != (domain.RGB{R: 118, G: 118, B: 118}) {
		t.Errorf("solid highlight = %+v", solid.Highlight)
	}
	if solid.Shadow != (domain.RGB{R: 75, G: 75, B: 75}) {
		t.Errorf("solid shadow = %+v", solid.Shadow)
	}

	// Unknown finish uses the solid factors.
	unknown := DeriveSwatch(base, domain.FinishUnknown)
	if unknown != solid {
		t.Errorf("unknown finish swatch = %+v, want solid factors", unknown)
	}
}

func TestDeriveSwatchClamps(t *testing.T) {
	white := DeriveSwatch(domain.RGB{R: 250, G: 250, B: 250}, domain.FinishPearl)
	if white.Highlight != (domain.RGB{R: 255, G: 255, B: 255}) {
		t.Errorf("highlight not clamped: %+v", white.Highlight)
	}
}

func TestHexConversions(t *testing.T) {
	rgb, err := HexToRGB("#FF8001")
	if err != nil {
		t.Fatalf("HexToRGB: %v", err)
	}
	if rgb != (domain.RGB{R: 255, G: 128, B: 1}) {
		t.Fatalf("HexToRGB = %+v", rgb)
	}
	if got := RGBToHex(rgb); got != "#FF8001" {
		t.Fatalf("RGBToHex = %s", got)
	}
	if _, err := HexToRGB("#FFF"); err == nil {
		t.Fatal("expected error for short hex")
	}
	if ValidHex("FFFFFF") {
		t.Fatal("hex without # prefix should not validate")
	}
	if !ValidHex("#0A1b2C") {
		t.Fatal("mixed-case hex should validate")
	}
}
