package web

// Example is a demo object whose metadata pre-fills the form. Examples carry
// text only; the user still supplies photographs.
type Example struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Period      string `json:"period"`
	Material    string `json:"material"`
	Provenance  string `json:"provenance"`
}

var examples = []Example{
	{
		ID:          "kangxi-blue-white-bowl",
		Title:       "清代康熙青花瓷碗",
		Description: "口径约15厘米，青花发色浓艳，绘缠枝莲纹，底书六字楷书款，圈足露胎处有火石红。",
		Period:      "清代",
		Material:    "青花瓷",
		Provenance:  "家传",
	},
	{
		ID:          "han-jade-bi",
		Title:       "汉代玉璧",
		Description: "直径约12厘米，两面饰谷纹，局部有沁色，边缘有磨损。",
		Period:      "汉代",
		Material:    "和田玉",
		Provenance:  "拍卖购买",
	},
	{
		ID:          "ming-bronze-mirror",
		Title:       "明代铜镜",
		Description: "圆形，背面铸有吉祥铭文及花鸟纹饰，镜面氧化发黑，钮孔完整。",
		Period:      "明代",
		Material:    "青铜",
		Provenance:  "古玩市场",
	},
}

// Examples returns a copy of the demo catalogue.
func Examples() []Example {
	out := make([]Example, len(examples))
	copy(out, examples)
	return out
}

// FindExample looks up a demo example by id.
func FindExample(id string) (Example, bool) {
	for _, example := range examples {
		if example.ID == id {
			return example, true
		}
	}
	return Example{}, false
}
