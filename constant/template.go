package constant

// ManifestTemplate is a Go text/template for scaffolding a new module manifest.
const ManifestTemplate = `{
  "id": {{ json .ID }},
  "type": "video",
  "subtypes": [{{ json .Subtype }}],
  "name": {{ json .Name }},
  "version": "0.1.0",
  "formatVersion": {{ .FormatVersion }},
  "updateUrl": "",
  "engine": {{ json .Engine }},
  "meta": {
    "author": {{ json .Author }},
    "description": "",
    "icon": "",
    "lang": ["en"],
    "baseUrl": {{ json .URL }}
  },
  "code": {
    {{ json .Subtype }}: {
      "home": {{ json (print .Subtype "/home") }},
      "search": {{ json (print .Subtype "/search") }},
      "info": {{ json (print .Subtype "/info") }},
      "media": {{ json (print .Subtype "/media") }}
    }
  }
}
`

// SearchScriptTemplate scaffolds the first search block of a web module.
const SearchScriptTemplate = `// {{ .Name }} search
// Write one <p> per output line into #{{ .ContainerID }}.
(function () {
	const out = document.getElementById("{{ .ContainerID }}");
	const items = [];

	document.querySelectorAll("a").forEach(function (a) {
		items.push({ title: a.textContent.trim(), url: a.href });
	});

	const p = document.createElement("p");
	p.textContent = JSON.stringify({ result: items, nextUrl: "" });
	out.appendChild(p);
})();
`

// SearchBlockTemplate scaffolds the metadata of the first search block.
const SearchBlockTemplate = `{
  "removeScripts": true,
  "allowExternalScripts": false,
  "usesApi": false,
  "imports": [],
  "request": {
    "method": "GET",
    "url": {{ json .SearchURL }},
    "headers": [{ "key": "Referer", "value": {{ json .URL }} }]
  }
}
`

// LuaSearchScriptTemplate scaffolds the first search block of a Lua module.
const LuaSearchScriptTemplate = `-- {{ .Name }} search
-- document.select(css) returns {text, html, attrs} tables, output.write(line) adds one output line.
local function quote(s)
  s = s:gsub('\\', '\\\\'):gsub('"', '\\"'):gsub('%s+', ' ')
  return '"' .. s .. '"'
end

local items = {}
for _, a in ipairs(document.select("a")) do
  if a.attrs.href then
    table.insert(items, '{"title":' .. quote(a.text) .. ',"url":' .. quote(a.attrs.href) .. '}')
  end
end

output.write('{"result":[' .. table.concat(items, ",") .. '],"nextUrl":""}')
`
