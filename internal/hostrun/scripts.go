// SPDX-License-Identifier: MPL-2.0

package hostrun

import (
	"fmt"
	"path/filepath"
)

// EnableScript enables the addon once.
func EnableScript(addon string) string {
	return fmt.Sprintf("import bpy\nbpy.ops.preferences.addon_enable(module=%q)", addon)
}

// hotReloadTemplate enables the addon, then polls the signature file once a
// second. When its content changes the addon is disabled, its modules are
// evicted from sys.modules and it is enabled again.
const hotReloadTemplate = `import bpy
from bpy.app.handlers import persistent
import os
import sys
existing_addon_md5 = ""
try:
    bpy.ops.preferences.addon_enable(module=%[1]q)
except Exception as e:
    print("Addon enable failed:", e)

def watch_update_tick():
    global existing_addon_md5
    if os.path.exists(%[2]q):
        with open(%[2]q, "r") as f:
            addon_md5 = f.read()
        if existing_addon_md5 == "":
            existing_addon_md5 = addon_md5
        elif existing_addon_md5 != addon_md5:
            print("Addon file changed, start to update the addon")
            try:
                bpy.ops.preferences.addon_disable(module=%[1]q)
                for k in sorted(sys.modules):
                    if k.startswith(%[1]q):
                        del sys.modules[k]
                bpy.ops.preferences.addon_enable(module=%[1]q)
            except Exception as e:
                print("Addon update failed:", e)
            existing_addon_md5 = addon_md5
            print("Addon updated")
    return 1.0

@persistent
def register_watch_update_tick(dummy):
    print("Watching for addon update...")
    bpy.app.timers.register(watch_update_tick)

register_watch_update_tick(None)
bpy.app.handlers.load_post.append(register_watch_update_tick)
`

// HotReloadScript enables the addon and reloads it whenever the signature
// file at signaturePath changes.
func HotReloadScript(addon, signaturePath string) string {
	return fmt.Sprintf(hotReloadTemplate, addon, filepath.ToSlash(signaturePath))
}
