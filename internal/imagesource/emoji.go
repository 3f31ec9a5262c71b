package imagesource

// EmojiSet is the fixed list of glyphs offered by the emoji picker:
// faces and emotions first, then gestures.
var EmojiSet = []string{
	"😀", "😃", "😄", "😁", "😆", "😅", "😂", "🤣", "😊", "😇",
	"🙂", "🙃", "😉", "😌", "😍", "🥰", "😘", "😗", "😙", "😚",
	"😋", "😜", "😝", "😛", "🤑", "🤗", "🤩", "🤔", "🤨", "😐",
	"😑", "😶", "🙄", "😏", "😒", "😞", "😔", "😟", "😕", "🙁",
	"☹️", "😣", "😖", "😫", "😩", "🥺", "😢", "😭", "😤", "😠",
	"😡", "🤬", "🤯", "😳", "🥵", "🥶", "😱", "😨", "😰", "😥",
	"😓", "🤤", "😪", "😴", "😷", "🤒", "🤕", "🤢", "🤮", "🤧",
	"👋", "🤚", "🖐️", "✋", "🖖", "👌", "🤏", "✌️", "🤞", "🤟",
	"🤘", "🤙", "👈", "👉", "👆", "👇", "☝️", "👍", "👎", "✊",
	"👊", "🤛", "🤜", "👏", "🙌", "👐", "🤲", "🙏",
}

// DefaultEmoji is preselected when the picker opens.
const DefaultEmoji = "😀"

func IsEmoji(glyph string) bool {
	for _, e := range EmojiSet {
		if e == glyph {
			return true
		}
	}
	return false
}
