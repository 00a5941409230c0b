package ppu

// Field is a bit range inside a Register.
type Field struct {
	Index uint16
	Size  uint16
}

func (f Field) mask() uint16 {
	return ((1 << f.Size) - 1) << f.Index
}

// PPUCTRL ($2000)
var (
	CtrlNametableX        = Field{0, 1}
	CtrlNametableY        = Field{1, 1}
	CtrlIncrementMode     = Field{2, 1}
	CtrlPatternSprite     = Field{3, 1}
	CtrlPatternBackground = Field{4, 1}
	CtrlSpriteSize        = Field{5, 1}
	CtrlSlaveMode         = Field{6, 1}
	CtrlEnableNMI         = Field{7, 1}
)

// PPUMASK ($2001)
var (
	MaskGrayscale            = Field{0, 1}
	MaskRenderBackgroundLeft = Field{1, 1}
	MaskRenderSpritesLeft    = Field{2, 1}
	MaskRenderBackground     = Field{3, 1}
	MaskRenderSprites        = Field{4, 1}
	MaskEnhanceRed           = Field{5, 1}
	MaskEnhanceGreen         = Field{6, 1}
	MaskEnhanceBlue          = Field{7, 1}
)

// PPUSTATUS ($2002)
var (
	StatusUnused         = Field{0, 5}
	StatusSpriteOverflow = Field{5, 1}
	StatusSpriteZeroHit  = Field{6, 1}
	StatusVerticalBlank  = Field{7, 1}
)

// Loopy fields of the internal v and t VRAM address registers.
var (
	LoopyCoarseX    = Field{0, 5}
	LoopyCoarseY    = Field{5, 5}
	LoopyNametableX = Field{10, 1}
	LoopyNametableY = Field{11, 1}
	LoopyFineY      = Field{12, 3}
	LoopyUnused     = Field{15, 1}
)

// Register is a 16-bit value addressed through named bit fields. Values
// wider than a field are truncated to the field's size.
type Register struct {
	Reg uint16
}

func (r *Register) SetField(f Field, value uint16) {
	m := f.mask()
	r.Reg = (r.Reg &^ m) | ((value << f.Index) & m)
}

func (r *Register) SetFlag(f Field, v bool) {
	if v {
		r.SetField(f, 1)
		return
	}
	r.SetField(f, 0)
}

func (r *Register) GetField(f Field) uint16 {
	return (r.Reg & f.mask()) >> f.Index
}

// Flag reports whether any bit of the field is set.
func (r *Register) Flag(f Field) bool {
	return r.Reg&f.mask() != 0
}

// Byte is the low eight bits of the register.
func (r *Register) Byte() uint8 {
	return uint8(r.Reg)
}
