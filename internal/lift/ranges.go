package lift

// ranges is the companion .lift-ranges document. It only declares the
// semantic domain range so importers accept the package; entries never
// reference it.
const ranges = `<?xml version="1.0" encoding="UTF-8"?>
<lift-ranges>
  <range id="semantic-domain-ddp4">
    <range-element id="1 Universe, creation" guid="63403699-07c1-43f3-a47c-069d6e4316e5">
      <label>
        <form lang="en"><text>Universe, creation</text></form>
      </label>
      <abbrev>
        <form lang="en"><text>1</text></form>
      </abbrev>
    </range-element>
  </range>
</lift-ranges>
`

// RenderRanges returns the static ranges document.
func RenderRanges() string {
	return ranges
}
