// Package printing renders report HTML to PDF with a headless Chrome driven
// by chromedp.
//
//	r := printing.NewChromedpRenderer(printing.ChromedpConfig{DefaultTimeout: 30 * time.Second})
//	defer r.Close()
//	res, err := r.Render(ctx, &printing.RenderRequest{HTML: html, Margins: printing.DefaultMargins()})
package printing
