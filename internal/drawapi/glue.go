package drawapi

// drawingJS hides the raw __fx_ functions behind the public names.
// Arguments that are not finite numbers within int32 are rejected here;
// the rest are truncated toward zero before they cross into Go. Errors from
// the Go side are rethrown as RangeError with the registration prefix
// stripped.
const drawingJS = `
(function() {
	var g = globalThis;
	function bind(name, arity) {
		var raw = g['__fx_' + name];
		delete g['__fx_' + name];
		g[name] = function() {
			var args = [];
			for (var i = 0; i < arity; i++) {
				var v = arguments[i];
				if (typeof v !== 'number' || !isFinite(v) || v < -2147483648 || v > 2147483647) {
					throw new RangeError(name + ': index out of range: ' + String(v));
				}
				args.push(Math.trunc(v));
			}
			try {
				return raw.apply(null, args);
			} catch (e) {
				var msg = (e && e.message !== undefined) ? e.message : String(e);
				throw new RangeError(String(msg).replace(/^calling __fx_[A-Za-z]+: /, ''));
			}
		};
	}
	bind('clear', 1);
	bind('setPixel', 3);
	bind('getPixel', 2);
	bind('setPalette', 4);
	bind('getPalette', 1);
	bind('frameCount', 0);
	var packed = g.getPalette;
	g.getPalette = function(i) {
		var v = packed(i);
		return [(v >> 16) & 255, (v >> 8) & 255, v & 255];
	};
})();
`

// drawingLua is the Lua 5.1 equivalent. Non-numbers are left to the Go
// side's argument checks; NaN and values outside int32 are rejected here.
const drawingLua = `
do
	local names = {"clear", "setPixel", "getPixel", "setPalette", "getPalette", "frameCount"}
	local function checked(name, f)
		return function(...)
			for i = 1, select("#", ...) do
				local v = select(i, ...)
				if type(v) == "number" and (v ~= v or v < -2147483648 or v > 2147483647) then
					error(name .. ": index out of range: " .. tostring(v), 2)
				end
			end
			return f(...)
		end
	end
	local raw = {}
	for _, n in ipairs(names) do
		raw[n] = checked(n, _G["__fx_" .. n])
		_G["__fx_" .. n] = nil
		_G[n] = raw[n]
	end
	function getPalette(i)
		local v = raw.getPalette(i)
		return math.floor(v / 65536) % 256, math.floor(v / 256) % 256, v % 256
	end
end
`

const consoleJS = `
(function() {
	var sink = globalThis.__fx_console;
	delete globalThis.__fx_console;
	var levels = ['log', 'info', 'warn', 'error', 'debug'];
	var con = {};
	for (var i = 0; i < levels.length; i++) {
		(function(lvl) {
			con[lvl] = function() {
				var parts = [];
				for (var j = 0; j < arguments.length; j++) {
					var arg = arguments[j];
					if (typeof arg === 'object' && arg !== null) {
						try { parts.push(JSON.stringify(arg)); } catch (e) { parts.push('[object Object]'); }
					} else {
						parts.push(String(arg));
					}
				}
				sink(lvl, parts.join(' '));
			};
		})(levels[i]);
	}
	globalThis.console = con;
})();
`

const consoleLua = `
do
	local sink = __fx_console
	__fx_console = nil
	local function join(...)
		local parts = {}
		for i = 1, select("#", ...) do
			parts[#parts + 1] = tostring(select(i, ...))
		end
		return table.concat(parts, "\t")
	end
	function print(...)
		sink("log", join(...))
	end
	log = {}
	for _, lvl in ipairs({"info", "warn", "error", "debug"}) do
		log[lvl] = function(...) sink(lvl, join(...)) end
	end
end
`
