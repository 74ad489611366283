package domain

import "time"

var fakeTimestamp = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// FakeItems synthesizes a deterministic placeholder page for sources that
// lack fake-data support. Demo and offline builds never hit the network.
func FakeItems(count int, sourceID string, visual bool, pageOffset int) []ContentItem {
	items := make([]ContentItem, 0, count)
	for i := 0; i < count; i++ {
		items = append(items, fakeItem(pageOffset+i, sourceID, visual))
	}
	return items
}

func fakeItem(index int, sourceID string, visual bool) ContentItem {
	description := "Lorem ipsum dolor sit amet, consectetur adipiscing elit, " +
		"sed do eiusmod tempor incididunt ut labore et dolore magna aliqua."
	author := "Author"
	source := "Source"
	tag := "Tag"
	scoreLabel := "+"
	scoreValue := int64(5)
	ts := fakeTimestamp
	contentType := ContentTypeOther

	clickURL := "https://example.com"
	if visual {
		clickURL = "https://picsum.photos/seed/" + sourceID + "/300/300"
		contentType = ContentTypeImage
	}

	return ContentItem{
		ID:              int64(index) + 1,
		SourceID:        sourceID,
		Title:           "Lorem ipsum dolor sit amet",
		Description:     &description,
		Author:          &author,
		Source:          &source,
		ScoreLabel:      &scoreLabel,
		ScoreValue:      &scoreValue,
		Timestamp:       &ts,
		Tag:             &tag,
		ContentType:     &contentType,
		ClickURL:        &clickURL,
		IndexInResponse: index,
	}
}
