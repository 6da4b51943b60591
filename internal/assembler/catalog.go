package assembler

import "fmt"

// ProbeCatalog is the ordered list of candidate file names tried when no
// index manifest is available. Catalog order is chapter order.
var ProbeCatalog = buildProbeCatalog()

func buildProbeCatalog() []string {
	var names []string

	// Basic numbered patterns
	for i := 1; i <= 10; i++ {
		names = append(names, fmt.Sprintf("chapter%d.md", i))
	}
	for i := 1; i <= 10; i++ {
		names = append(names, fmt.Sprintf("ch%d.md", i))
	}
	for i := 1; i <= 10; i++ {
		names = append(names, fmt.Sprintf("%02d.md", i))
	}

	// Chinese numbered patterns
	for _, numeral := range []string{"一", "二", "三", "四", "五"} {
		names = append(names, "第"+numeral+"章.md")
	}
	for i := 1; i <= 5; i++ {
		names = append(names, fmt.Sprintf("第%d章.md", i))
	}

	// Front and back matter
	names = append(names,
		"intro.md",
		"introduction.md",
		"preface.md",
		"序言.md",
		"前言.md",
		"epilogue.md",
		"conclusion.md",
		"后记.md",
		"结语.md",
	)

	return names
}
