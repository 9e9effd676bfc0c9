package report

// reportTemplate is the whole report shell. Charts and the map arrive as
// base64 PNG data URIs; the tables are plain HTML made sortable by the
// small script at the bottom.
const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: "Helvetica Neue", Arial, sans-serif; margin: 2em auto; max-width: 70em; color: #222; }
h1 { border-bottom: 2px solid #1f77b4; padding-bottom: 0.2em; }
h2 { margin-top: 2em; color: #1f77b4; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; font-size: 0.88em; }
th, td { border: 1px solid #ddd; padding: 0.35em 0.6em; text-align: left; }
th { background: #f0f4f8; cursor: pointer; white-space: nowrap; }
th:hover { background: #dde7f0; }
tr:nth-child(even) { background: #fafbfc; }
td.num { text-align: right; font-variant-numeric: tabular-nums; }
td.na { background: #f5f5f5; }
.meta { color: #666; font-size: 0.9em; }
.notes { background: #fff7e6; border: 1px solid #f0c36d; padding: 0.8em 1.2em; border-radius: 4px; }
.legend span { display: inline-block; margin-right: 1.4em; }
.legend i { display: inline-block; width: 0.8em; height: 0.8em; border-radius: 50%; margin-right: 0.35em; }
img { max-width: 100%; }
.stats { display: flex; gap: 2.5em; flex-wrap: wrap; }
.stats div { background: #f0f4f8; padding: 0.7em 1.3em; border-radius: 4px; }
.stats b { display: block; font-size: 1.35em; }
</style>
</head>
<body>

<h1>{{.Title}}</h1>
<p class="meta">Generated {{.GeneratedAt.Format "2006-01-02 15:04 MST"}}.</p>

{{if .Notes}}
<div class="notes">
<strong>Incomplete sections</strong>
<ul>
{{range .Notes}}<li>{{.}}</li>{{end}}
</ul>
</div>
{{end}}

<div class="stats">
<div><b>{{.SampleCount}}</b>samples</div>
<div><b>{{printf "%.0f" .TotalReads}}</b>total reads</div>
<div><b>{{printf "%.0f" .MeanReads}}</b>mean reads/sample</div>
<div><b>{{printf "%.0f" .MedianReads}}</b>median reads/sample</div>
<div><b>{{.SpeciesCount}}</b>species</div>
</div>

{{if .MapPNG}}
<h2>Sample locations</h2>
<img src="{{.MapPNG}}" alt="sample map">
<p class="legend">
<span><i style="background:#1f77b4"></i>plankton</span>
<span><i style="background:#ff7f0e"></i>plate</span>
<span><i style="background:#2ca02c"></i>water</span>
<span><i style="background:#808080"></i>unclassified</span>
</p>
{{end}}

<h2>Samples</h2>
<table data-sortable>
<thead><tr><th>Location</th><th>Event</th><th>Sample</th><th>Type</th><th>Date</th><th>Lon</th><th>Lat</th><th>ASVs</th><th>Reads</th><th>Species</th></tr></thead>
<tbody>
{{range .Samples}}
<tr>
<td>{{.LocationID}}</td>
<td>{{.EventID}}</td>
<td>{{.MaterialSampleID}}</td>
<td>{{.EventType}}</td>
<td>{{dateCell .EventDate}}</td>
<td class="num">{{printf "%.4f" .Longitude}}</td>
<td class="num">{{printf "%.4f" .Latitude}}</td>
<td class="num">{{.ASVs}}</td>
<td class="num">{{printf "%.0f" .Reads}}</td>
<td class="num">{{.Species}}</td>
</tr>
{{end}}
</tbody>
</table>

{{if .PhylumCharts}}
<h2>Community composition</h2>
{{range .PhylumCharts}}
<img src="{{.}}" alt="reads per phylum">
{{end}}
{{end}}

{{if or .AbundancePNG .PresencePNG}}
<h2>Ordination</h2>
{{if .AbundancePNG}}<img src="{{.AbundancePNG}}" alt="NMDS, read abundance">{{end}}
{{if .PresencePNG}}<img src="{{.PresencePNG}}" alt="NMDS, presence/absence">{{end}}
{{end}}

<h2>Species</h2>
<table data-sortable>
<thead><tr><th>Phylum</th><th>Class</th><th>Species</th><th>AphiaID</th><th>Reads</th><th>Plankton</th><th>Plate</th><th>Water</th></tr></thead>
<tbody>
{{range .SpeciesList}}
<tr>
<td>{{.Phylum.String}}</td>
<td>{{.Class.String}}</td>
<td><i>{{.Species}}</i></td>
{{intCell .AphiaID}}
<td class="num">{{printf "%.0f" .Reads}}</td>
{{pctCell .Plankton}}
{{pctCell .Plate}}
{{pctCell .Water}}
</tr>
{{end}}
</tbody>
</table>

<h2>Potentially introduced species</h2>
{{if .Introduced}}
<table data-sortable>
<thead><tr><th>Phylum</th><th>Class</th><th>Species</th><th>AphiaID</th><th>Reads</th><th>Plankton</th><th>Plate</th><th>Water</th></tr></thead>
<tbody>
{{range .Introduced}}
<tr>
<td>{{.Phylum.String}}</td>
<td>{{.Class.String}}</td>
<td><i>{{.Species}}</i></td>
{{intCell .AphiaID}}
<td class="num">{{printf "%.0f" .Reads}}</td>
{{pctCell .Plankton}}
{{pctCell .Plate}}
{{pctCell .Water}}
</tr>
{{end}}
</tbody>
</table>
{{else}}
<p class="meta">No species from the introduced-species checklist were detected{{if .ChecklistDegraded}} (checklist unavailable for this run){{end}}.</p>
{{end}}

{{if .DNA}}
<h2>DNA extension</h2>
<table data-sortable>
<thead><tr><th>Event</th><th>Sample</th><th>Target gene</th><th>Forward primer</th><th>Reverse primer</th><th>Concentration</th></tr></thead>
<tbody>
{{range .DNA}}
<tr>
<td>{{.EventID}}</td>
<td>{{.MaterialSampleID}}</td>
<td>{{.TargetGene.String}}</td>
<td>{{.PCRPrimerNameForward.String}}</td>
<td>{{.PCRPrimerNameReverse.String}}</td>
{{floatCell .Concentration}}
</tr>
{{end}}
</tbody>
</table>
{{end}}

<script>
document.querySelectorAll("table[data-sortable] th").forEach(function (th) {
  th.addEventListener("click", function () {
    var table = th.closest("table");
    var tbody = table.querySelector("tbody");
    var idx = Array.prototype.indexOf.call(th.parentNode.children, th);
    var asc = th.dataset.asc !== "true";
    th.dataset.asc = asc;
    var rows = Array.prototype.slice.call(tbody.querySelectorAll("tr"));
    rows.sort(function (a, b) {
      var x = a.children[idx].textContent.trim();
      var y = b.children[idx].textContent.trim();
      var nx = parseFloat(x), ny = parseFloat(y);
      if (!isNaN(nx) && !isNaN(ny)) { return asc ? nx - ny : ny - nx; }
      return asc ? x.localeCompare(y) : y.localeCompare(x);
    });
    rows.forEach(function (r) { tbody.appendChild(r); });
  });
});
</script>

</body>
</html>
`
