package scrape

import (
	"context"

	"github.com/chromedp/chromedp"
)

// Cell is one schedule-grid cell as the page rendered it
type Cell struct {
	Text    string `json:"text"`
	Class   string `json:"class"`
	Style   string `json:"style"`
	ColSpan int    `json:"colspan"`
	RowSpan int    `json:"rowspan"`
}

// Row is one table row
type Row struct {
	Cells []Cell `json:"cells"`
}

// Table is one table's full cell grid
type Table struct {
	Rows []Row `json:"rows"`
}

// tablesJS reads every table on the page in one evaluation; the per-cell
// loop stays inside the page so the CDP boundary is crossed once
const tablesJS = `(() => {
	const tables = [];
	for (const table of document.querySelectorAll('table')) {
		const rows = [];
		for (const tr of table.querySelectorAll('tr')) {
			const cells = [];
			for (const c of tr.querySelectorAll('th, td')) {
				cells.push({
					text: (c.innerText || '').replace(/\u00a0/g, ' ').trim(),
					class: c.getAttribute('class') || '',
					style: c.getAttribute('style') || '',
					colspan: c.colSpan || 1,
					rowspan: c.rowSpan || 1,
				});
			}
			rows.push({cells: cells});
		}
		tables.push({rows: rows});
	}
	return tables;
})()`

// Tables snapshots every table on the page in a single batched evaluation
func Tables(ctx context.Context) ([]Table, error) {
	var out []Table
	if err := chromedp.Run(ctx, chromedp.Evaluate(tablesJS, &out)); err != nil {
		return nil, err
	}
	return out, nil
}
