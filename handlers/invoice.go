package handlers

import (
	"html/template"

	"github.com/shopspring/decimal"
)

var invoiceTemplate = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Invoice {{.InvoiceNo}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { width: 100%; border-collapse: collapse; }
th, td { border-bottom: 1px solid #ddd; padding: 4px 8px; text-align: left; }
td.num, th.num { text-align: right; }
</style>
</head>
<body>
<h2>Invoice #{{.InvoiceNo}}</h2>
<p>Date: {{.Date.Format "2006-01-02 15:04"}}</p>
<p>Customer: {{.CustomerName}}{{with .Customer}}{{if .Phone}} ({{.Phone}}){{end}}{{end}}</p>
{{with .Customer}}{{if .Address}}<p>Address: {{.Address}}</p>{{end}}{{end}}
<table>
<thead><tr><th>Product</th><th class="num">Qty</th><th class="num">Price</th><th class="num">Subtotal</th></tr></thead>
<tbody>
{{range .Items}}<tr><td>{{.ProductName}}</td><td class="num">{{.Quantity}}</td><td class="num">${{money .UnitPrice}}</td><td class="num">${{money .Subtotal}}</td></tr>
{{end}}</tbody>
</table>
<h3>Total: ${{money .TotalAmount}}</h3>
<p>Payment: {{.PaymentMethodDisplay}}</p>
</body>
</html>
`))
