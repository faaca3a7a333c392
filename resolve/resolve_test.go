package resolve

import (
	"testing"

	"github.com/designlab/overlay/dom"
)

var variants = []string{"A", "B", "C", "D", "E"}

func mustParse(t *testing.T, src string) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(src, variants)
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func pick(t *testing.T, doc *dom.Document, sel string) *dom.Element {
	t.Helper()
	els := doc.QuerySelectorAll(nil, sel)
	if len(els) == 0 {
		t.Fatalf("fixture selector %q matched nothing", sel)
	}
	return els[0]
}

func TestIsGeneratedClassName(t *testing.T) {
	tests := []struct {
		name      string
		generated bool
	}{
		{"css-1q2w3e", true},
		{"sc-bdVaJa", true},
		{"jsx-3428094", true},
		{"chakra-button", true},
		{"header_a8f3x92", true},
		{"c4281970", true},
		{"ab12345", true},
		{"cta-button", false},
		{"hero-block", false},
		{"primary", false},
		{"nav_bar", false}, // underscore suffix too short to be a hash
		{"h1", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsGeneratedClassName(tt.name); got != tt.generated {
			t.Errorf("IsGeneratedClassName(%q) = %v, want %v", tt.name, got, tt.generated)
		}
	}
}

func TestFilterClasses(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"cta-button css-1q2w3e primary", "cta-button primary"},
		{"css-1q2w3e sc-bdVaJa", ""},
		{"", ""},
		{"  spaced   out  ", "spaced out"},
	}
	for _, tt := range tests {
		if got := FilterClasses(tt.in); got != tt.want {
			t.Errorf("FilterClasses(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFilterClasses_Idempotent(t *testing.T) {
	inputs := []string{
		"cta-button css-1q2w3e primary",
		"header_a8f3x92 nav-bar",
		"",
		"plain simple classes",
	}
	for _, in := range inputs {
		once := FilterClasses(in)
		if twice := FilterClasses(once); twice != once {
			t.Errorf("FilterClasses not idempotent on %q: %q != %q", in, once, twice)
		}
	}
}

const selectorFixture = `<div data-variant="A" class="variant-card">
  <div class="toolbar">
    <button data-testid="export-btn" class="btn">Export</button>
    <button id="reset" class="btn">Reset</button>
    <button id=":r1:" aria-label="Close dialog">×</button>
    <div role="tablist"><button role="tab" name="first">One</button></div>
    <input name="email" type="email">
    <input type="search">
    <span></span>
  </div>
  <section class="hero-block">
    <p class="lead copy">First</p>
    <p>Plain</p>
  </section>
  <section class="alt-block">
    <p class="lead copy">Second</p>
  </section>
</div>`

func TestSelector_FallbackOrder(t *testing.T) {
	doc := mustParse(t, selectorFixture)
	root := pick(t, doc, `[data-variant="A"]`)

	tests := []struct {
		pick string
		want string
	}{
		{`[data-testid="export-btn"]`, `[data-testid="export-btn"]`},
		{`#reset`, `#reset`},
		{`button[aria-label]`, `button[aria-label="Close dialog"]`},
		{`button[role="tab"]`, `button[role="tab"][name="first"]`},
		{`input[name="email"]`, `input[name="email"]`},
		{`input[type="search"]`, `input[type="search"]`},
	}
	for _, tt := range tests {
		el := pick(t, doc, tt.pick)
		if got := Selector(el, root, doc); got != tt.want {
			t.Errorf("Selector(%s) = %q, want %q", tt.pick, got, tt.want)
		}
	}
}

func TestSelector_GeneratedIDFallsThrough(t *testing.T) {
	doc := mustParse(t, selectorFixture)
	root := pick(t, doc, `[data-variant="A"]`)

	// id ":r1:" is framework-generated; aria-label is next in line.
	el := pick(t, doc, `button[aria-label]`)
	if got := Selector(el, root, doc); got != `button[aria-label="Close dialog"]` {
		t.Fatalf("generated id should be skipped, got %q", got)
	}
}

func TestSelector_ClassDisambiguation(t *testing.T) {
	doc := mustParse(t, selectorFixture)
	root := pick(t, doc, `[data-variant="A"]`)

	ps := doc.QuerySelectorAll(nil, ".lead.copy")
	if len(ps) != 2 {
		t.Fatalf("fixture: expected 2 .lead.copy elements, got %d", len(ps))
	}
	selA := Selector(ps[0], root, doc)
	selB := Selector(ps[1], root, doc)
	if selA == selB {
		t.Fatalf("ambiguous class selectors not disambiguated: both %q", selA)
	}
	if selA != ".hero-block > .lead.copy" {
		t.Errorf("first: got %q", selA)
	}
	if selB != ".alt-block > .lead.copy" {
		t.Errorf("second: got %q", selB)
	}
}

func TestSelector_StructuralFallback(t *testing.T) {
	doc := mustParse(t, selectorFixture)
	root := pick(t, doc, `[data-variant="A"]`)

	// The bare span has no test id, id, label, role, class, or form nature.
	el := pick(t, doc, "span")
	got := Selector(el, root, doc)
	if got != "div > span" {
		t.Fatalf("structural: got %q, want %q", got, "div > span")
	}
}

func TestSelector_StructuralNthChild(t *testing.T) {
	doc := mustParse(t, `<div data-variant="B"><ul><li>a</li><li>b</li><li>c</li></ul></div>`)
	root := pick(t, doc, `[data-variant="B"]`)

	lis := doc.QuerySelectorAll(nil, "li")
	got := Selector(lis[1], root, doc)
	if got != "ul > li:nth-child(2)" {
		t.Fatalf("structural nth-child: got %q", got)
	}
}

func TestSelector_StructuralTruncation(t *testing.T) {
	doc := mustParse(t, `<div data-variant="C"><div><div><div><div><div><span>deep</span></div></div></div></div></div></div>`)
	root := pick(t, doc, `[data-variant="C"]`)

	el := pick(t, doc, "span")
	got := Selector(el, root, doc)
	if got != "div > div > div > span" {
		t.Fatalf("structural truncation: got %q", got)
	}
}

func TestSelector_Deterministic(t *testing.T) {
	doc := mustParse(t, selectorFixture)
	root := pick(t, doc, `[data-variant="A"]`)

	for _, el := range doc.QuerySelectorAll(root, "button") {
		first := Selector(el, root, doc)
		if first == "" {
			t.Fatal("Selector returned empty string")
		}
		for i := 0; i < 3; i++ {
			if again := Selector(el, root, doc); again != first {
				t.Fatalf("Selector not deterministic: %q then %q", first, again)
			}
		}
	}
}

func TestReadablePath(t *testing.T) {
	doc := mustParse(t, `<div data-variant="B" class="variant-card">
		<section class="hero-block">
			<button class="cta-button">Get started now</button>
		</section>
	</div>`)
	root := pick(t, doc, `[data-variant="B"]`)
	btn := pick(t, doc, "button")

	got := ReadablePath(btn, root, "B")
	want := `Variant B › Hero Block › Button: "Get started now"`
	if got != want {
		t.Fatalf("ReadablePath:\n got %q\nwant %q", got, want)
	}
}

func TestReadablePath_Labels(t *testing.T) {
	doc := mustParse(t, `<div data-variant="A">
		<h2>Pricing that scales</h2>
		<input placeholder="Work email">
		<nav aria-label="Main menu"><span>x</span></nav>
		<div class="heroBlock"><i>y</i></div>
	</div>`)
	root := pick(t, doc, `[data-variant="A"]`)

	tests := []struct {
		sel  string
		want string
	}{
		{"h2", `Variant A › Heading: "Pricing that scales"`},
		{"input", `Variant A › Input: Work email`},
		{"nav", `Variant A › Main menu`},
		{"i", `Variant A › Hero Block › I`},
	}
	for _, tt := range tests {
		el := pick(t, doc, tt.sel)
		if got := ReadablePath(el, root, "A"); got != tt.want {
			t.Errorf("ReadablePath(%s):\n got %q\nwant %q", tt.sel, got, tt.want)
		}
	}
}

func TestReadablePath_DepthLimit(t *testing.T) {
	doc := mustParse(t, `<div data-variant="A"><div class="one"><div class="two"><div class="three"><div class="four"><em>x</em></div></div></div></div></div>`)
	root := pick(t, doc, `[data-variant="A"]`)
	el := pick(t, doc, "em")

	got := ReadablePath(el, root, "A")
	want := "Variant A › Three › Four › Em"
	if got != want {
		t.Fatalf("ReadablePath depth: got %q, want %q", got, want)
	}
}

func TestMapCoordinates(t *testing.T) {
	doc := mustParse(t, `<div data-variant="A"><p>x</p></div>`)
	root := pick(t, doc, `[data-variant="A"]`)
	doc.SetRect(root, dom.Rect{X: 100, Y: 200, Width: 400, Height: 800})

	tests := []struct {
		x, y         float64
		wantX, wantY float64
	}{
		{100, 200, 0, 0},
		{500, 1000, 100, 100},
		{300, 600, 50, 50},
		{233, 333, 33.3, 16.6},
		{50, 50, 0, 0},     // outside, clamped
		{999, 9999, 100, 100}, // outside, clamped
	}
	for _, tt := range tests {
		got := MapCoordinates(root, tt.x, tt.y)
		if got.X != tt.wantX || got.Y != tt.wantY {
			t.Errorf("MapCoordinates(%v, %v) = (%v, %v), want (%v, %v)",
				tt.x, tt.y, got.X, got.Y, tt.wantX, tt.wantY)
		}
	}
}

func TestMapCoordinates_NoGeometry(t *testing.T) {
	doc := mustParse(t, `<div data-variant="A"><p>x</p></div>`)
	root := pick(t, doc, `[data-variant="A"]`)

	if got := MapCoordinates(root, 50, 50); got.X != 0 || got.Y != 0 {
		t.Fatalf("MapCoordinates without rect: got %+v", got)
	}
}

func TestRelevantAttributes(t *testing.T) {
	doc := mustParse(t, `<div data-variant="A">
		<button id="go" role="tab" type="submit" name="go-btn" class="x"
			data-track="cta" aria-pressed="false" style="color:red" onclick="x()">Go</button>
	</div>`)
	btn := pick(t, doc, "button")

	got := RelevantAttributes(btn)
	want := map[string]string{
		"id": "go", "role": "tab", "type": "submit", "name": "go-btn",
		"data-track": "cta", "aria-pressed": "false",
	}
	if len(got) != len(want) {
		t.Fatalf("RelevantAttributes: got %v", got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("RelevantAttributes[%q] = %q, want %q", k, got[k], v)
		}
	}
}

func TestDescribe(t *testing.T) {
	doc := mustParse(t, `<div data-variant="B"><section class="hero-block">
		<button data-testid="cta" class="cta-button css-9x8y7z">Make it so</button>
	</section></div>`)
	root := pick(t, doc, `[data-variant="B"]`)
	btn := pick(t, doc, "button")

	id := Describe(btn, root, doc, "B")
	if id.Selector != `[data-testid="cta"]` {
		t.Errorf("Selector: %q", id.Selector)
	}
	if id.TagName != "button" {
		t.Errorf("TagName: %q", id.TagName)
	}
	if id.TextContent != "Make it so" {
		t.Errorf("TextContent: %q", id.TextContent)
	}
	if id.ClassName != "cta-button" {
		t.Errorf("ClassName: %q (generated hash must be filtered)", id.ClassName)
	}
	if id.Attributes["data-testid"] != "cta" {
		t.Errorf("Attributes: %v", id.Attributes)
	}
}
