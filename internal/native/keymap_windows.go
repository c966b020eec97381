//go:build windows

package native

import (
	"fmt"

	"inputhook/internal/event"
)

var vkNames = map[uint32]event.Key{
	0x08: "Backspace",
	0x09: "Tab",
	0x0D: "Enter",
	0x10: "ShiftLeft",
	0x11: "ControlLeft",
	0x12: "AltLeft",
	0x13: "Pause",
	0x14: "CapsLock",
	0x1B: "Escape",
	0x20: "Space",
	0x21: "PageUp",
	0x22: "PageDown",
	0x23: "End",
	0x24: "Home",
	0x25: "ArrowLeft",
	0x26: "ArrowUp",
	0x27: "ArrowRight",
	0x28: "ArrowDown",
	0x2C: "PrintScreen",
	0x2D: "Insert",
	0x2E: "Delete",
	0x5B: "MetaLeft",
	0x5C: "MetaRight",
	0x91: "ScrollLock",
	0xA0: "ShiftLeft",
	0xA1: "ShiftRight",
	0xA2: "ControlLeft",
	0xA3: "ControlRight",
	0xA4: "AltLeft",
	0xA5: "AltRight",
}

// vkToKey maps a Windows virtual-key code to a logical key name
func vkToKey(vk uint32) event.Key {
	if k, ok := vkNames[vk]; ok {
		return k
	}
	switch {
	case vk >= 0x41 && vk <= 0x5A:
		return event.Key("Key" + string(rune(vk)))
	case vk >= 0x30 && vk <= 0x39:
		return event.Key("Num" + string(rune(vk)))
	case vk >= 0x70 && vk <= 0x87:
		return event.Key(fmt.Sprintf("F%d", vk-0x6F))
	}
	return event.Key(fmt.Sprintf("Unknown(%d)", vk))
}
